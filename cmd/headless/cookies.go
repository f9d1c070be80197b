package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCookiesCmd(s *session) *cobra.Command {
	var clear bool
	cmd := &cobra.Command{
		Use:   "cookies [url]",
		Short: "Show the cookie jar, after visiting url when one is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jar := s.conv.Jar()
			if clear {
				jar.Clear()
			}
			if len(args) == 1 {
				if resp, err := s.conv.Get(cmd.Context(), args[0]); resp == nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			for _, c := range jar.Cookies() {
				expires := "session"
				if !c.Expires.IsZero() {
					expires = c.Expires.UTC().Format(time.RFC3339)
				}
				domain := c.Domain
				if domain == "" {
					domain = "*"
				}
				path := c.Path
				if path == "" {
					path = "/"
				}
				fmt.Fprintf(out, "%s=%s\tdomain=%s\tpath=%s\texpires=%s", c.Name, c.Value, domain, path, expires)
				if c.Secure {
					fmt.Fprint(out, "\tsecure")
				}
				if c.HTTPOnly {
					fmt.Fprint(out, "\thttponly")
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "Empty the jar first")
	return cmd
}
