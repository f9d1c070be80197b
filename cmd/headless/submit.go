package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/headless/internal/form"
	"github.com/GriffinCanCode/headless/internal/request"
	"github.com/GriffinCanCode/headless/internal/script"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type submitFlags struct {
	form   string
	sets   []string
	files  []string
	button string
	click  string
	script string
}

func newSubmitCmd(s *session) *cobra.Command {
	flags := &submitFlags{}
	cmd := &cobra.Command{
		Use:   "submit <url>",
		Short: "Fill in a form on a page and submit it",
		Args:  cobra.ExactArgs(1),
		Example: `  headless submit http://localhost:8080/login --form 0 --set user=alice --set password=secret
  headless submit http://localhost:8080/upload --form upload --file doc=./report.pdf --button send
  headless submit http://localhost:8080/map --form 0 --button map --click 10,20
  headless submit http://localhost:8080/prefs --form prefs --script ./fill.js`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			page, err := s.conv.Get(ctx, args[0])
			if err != nil {
				return err
			}
			f, err := pickForm(s.conv, page, flags.form)
			if err != nil {
				return err
			}

			if flags.script != "" {
				source, err := os.ReadFile(flags.script)
				if err != nil {
					return fmt.Errorf("failed to read script: %w", err)
				}
				result, err := script.New(script.DefaultConfig(), s.logger.Logger).Run(ctx, string(source), f)
				if result != nil {
					for _, entry := range result.Console {
						s.logger.Info("Script console", zap.String("level", entry.Level), zap.String("message", entry.Message))
					}
				}
				if err != nil {
					return fmt.Errorf("script failed: %w", err)
				}
			}
			if err := applyAssignments(f, flags.sets, flags.files); err != nil {
				return err
			}

			opts, err := buttonOptions(f, flags.button, flags.click)
			if err != nil {
				return err
			}
			resp, err := s.conv.Submit(ctx, page, f, opts...)
			if resp == nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp)
			if resp.IsHTML() {
				if title, terr := resp.Title(); terr == nil && title != "" {
					fmt.Fprintln(out, title)
				}
			}
			return err
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&flags.form, "form", "f", "0", "Form index, name or id")
	fl.StringArrayVarP(&flags.sets, "set", "s", nil, "Set a parameter, name=value (repeat for several values)")
	fl.StringArrayVar(&flags.files, "file", nil, "Upload a file, name=path")
	fl.StringVarP(&flags.button, "button", "b", "", "Submit button, name or name=value")
	fl.StringVar(&flags.click, "click", "", "Click position x,y on an image button")
	fl.StringVar(&flags.script, "script", "", "JavaScript file run against the form before --set values")
	return cmd
}

// applyAssignments sets name=value pairs; a name given more than once gets
// all of its values in order
func applyAssignments(f *form.Form, sets, files []string) error {
	var order []string
	values := make(map[string][]string)
	for _, assignment := range sets {
		name, value, ok := strings.Cut(assignment, "=")
		if !ok {
			return fmt.Errorf("invalid --set %q, expected name=value", assignment)
		}
		if _, seen := values[name]; !seen {
			order = append(order, name)
		}
		values[name] = append(values[name], value)
	}
	for _, name := range order {
		if err := f.SetParameterValues(name, values[name]); err != nil {
			return err
		}
	}

	uploads := make(map[string][]form.UploadFile)
	order = order[:0]
	for _, assignment := range files {
		name, path, ok := strings.Cut(assignment, "=")
		if !ok {
			return fmt.Errorf("invalid --file %q, expected name=path", assignment)
		}
		file, err := form.FileFromPath(path, "")
		if err != nil {
			return err
		}
		if _, seen := uploads[name]; !seen {
			order = append(order, name)
		}
		uploads[name] = append(uploads[name], file)
	}
	for _, name := range order {
		if err := f.SetFiles(name, uploads[name]...); err != nil {
			return err
		}
	}
	return nil
}

func buttonOptions(f *form.Form, button, click string) ([]request.Option, error) {
	if button == "" {
		if click != "" {
			return nil, fmt.Errorf("--click needs --button")
		}
		return nil, nil
	}
	name, value, _ := strings.Cut(button, "=")
	b := f.SubmitButton(name, value)
	if b == nil {
		return nil, fmt.Errorf("no submit button %q", button)
	}
	if click == "" {
		return []request.Option{request.WithButton(b)}, nil
	}
	xs, ys, ok := strings.Cut(click, ",")
	x, errX := strconv.Atoi(strings.TrimSpace(xs))
	y, errY := strconv.Atoi(strings.TrimSpace(ys))
	if !ok || errX != nil || errY != nil {
		return nil, fmt.Errorf("invalid --click %q, expected x,y", click)
	}
	return []request.Option{request.WithClick(b, x, y)}, nil
}
