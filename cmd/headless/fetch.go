package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/GriffinCanCode/headless/internal/conversation"
	"github.com/spf13/cobra"
)

func newFetchCmd(s *session) *cobra.Command {
	var (
		include   bool
		frames    bool
		xpath     string
		jsonPath  string
		sanitized bool
	)
	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetch a page and print it",
		Args:  cobra.ExactArgs(1),
		Example: `  headless fetch http://localhost:8080/
  headless fetch http://localhost:8080/ --xpath '//a/@href'
  headless fetch http://localhost:8080/api --json user.name`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			resp, err := s.conv.Get(cmd.Context(), args[0])
			if resp == nil {
				return err
			}
			if include {
				printHeaders(out, resp)
			}

			switch {
			case xpath != "":
				texts, xerr := resp.XPathText(xpath)
				if xerr != nil {
					return xerr
				}
				for _, t := range texts {
					fmt.Fprintln(out, t)
				}
			case jsonPath != "":
				fmt.Fprintln(out, resp.JSON(jsonPath).String())
			case sanitized:
				text, serr := resp.Sanitized()
				if serr != nil {
					return serr
				}
				fmt.Fprintln(out, text)
			default:
				text, terr := resp.Text()
				if terr != nil {
					return terr
				}
				fmt.Fprint(out, text)
			}

			if frames && resp.IsHTML() {
				loaded, ferr := s.conv.FetchFrames(cmd.Context(), resp)
				for _, frame := range loaded {
					fmt.Fprintf(out, "\n--- frame %s: %s\n", frame.Frame(), frame)
				}
				if ferr != nil {
					return ferr
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&include, "include", "i", false, "Print the status line and headers")
	cmd.Flags().BoolVar(&frames, "frames", false, "Also load the page's frames and iframes")
	cmd.Flags().StringVar(&xpath, "xpath", "", "Print the text of nodes matching an XPath expression")
	cmd.Flags().StringVar(&jsonPath, "json", "", "Print the value at a JSON path")
	cmd.Flags().BoolVar(&sanitized, "sanitize", false, "Strip scripts and unsafe markup")
	return cmd
}

func printHeaders(out io.Writer, resp *conversation.WebResponse) {
	proto := resp.Proto()
	if proto == "" {
		proto = "HTTP/1.1"
	}
	fmt.Fprintf(out, "%s %d %s\n", proto, resp.Status(), resp.StatusText())
	header := resp.Header()
	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range header[name] {
			fmt.Fprintf(out, "%s: %s\n", name, v)
		}
	}
	fmt.Fprintln(out)
}

// describeValues renders parameter values for listings
func describeValues(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
