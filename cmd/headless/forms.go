package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/GriffinCanCode/headless/internal/conversation"
	"github.com/GriffinCanCode/headless/internal/form"
	"github.com/spf13/cobra"
)

func newFormsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "forms <url>",
		Short: "List the forms of a page with their parameters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := s.conv.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			forms, err := s.conv.Forms(resp)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(forms) == 0 {
				fmt.Fprintln(out, "no forms")
				return nil
			}
			for i, f := range forms {
				printForm(out, i, f)
			}
			return nil
		},
	}
}

func printForm(out io.Writer, index int, f *form.Form) {
	name := f.Name()
	if name == "" {
		name = f.ID()
	}
	enctype := "urlencoded"
	if f.IsMultipart() {
		enctype = "multipart"
	}
	fmt.Fprintf(out, "form %d %q %s %s (%s)\n", index, name, f.Method(), f.Action(), enctype)

	for _, p := range f.Parameters() {
		flags := ""
		switch {
		case p.IsDisabled():
			flags = " disabled"
		case p.IsReadOnly():
			flags = " readonly"
		case p.IsFile():
			flags = " file"
		}
		fmt.Fprintf(out, "  %s = %s%s", p.Name(), describeValues(p.Values()), flags)
		if options := p.Options(); len(options) > 0 {
			fmt.Fprintf(out, " options %s", describeValues(options))
		}
		fmt.Fprintln(out)
	}
	for _, b := range f.SubmitButtons() {
		state := ""
		if b.Disabled() {
			state = " disabled"
		}
		fmt.Fprintf(out, "  [%s] %s=%q%s\n", b.Kind(), b.Name(), b.Value(), state)
	}
}

// pickForm selects a form by index or by name or id
func pickForm(conv *conversation.WebConversation, resp *conversation.WebResponse, which string) (*form.Form, error) {
	forms, err := conv.Forms(resp)
	if err != nil {
		return nil, err
	}
	if i, err := strconv.Atoi(which); err == nil {
		if i < 0 || i >= len(forms) {
			return nil, fmt.Errorf("page has %d forms, no form %d", len(forms), i)
		}
		return forms[i], nil
	}
	for _, f := range forms {
		if f.Name() == which || f.ID() == which {
			return f, nil
		}
	}
	return nil, fmt.Errorf("no form named %q in %s", which, resp.URL())
}
