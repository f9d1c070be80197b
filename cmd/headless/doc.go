/*
Command headless drives web pages from the terminal without a browser.

	headless fetch http://localhost:8080/           # print a page
	headless forms http://localhost:8080/login      # list forms and their parameters
	headless submit http://localhost:8080/login --form login \
		--set user=alice --set password=secret     # fill and submit a form
	headless cookies http://localhost:8080/         # show cookies after a visit

Configuration comes from a YAML or TOML file given with --config, or from
config.yaml in $XDG_CONFIG_HOME/headless, overlaid by environment
variables. When store.path is set, cookies persist across runs in a SQLite
database. --har records every exchange to an HTTP Archive, --metrics prints
exchange metrics when the command ends and --trace logs a timed span for
every request and redirect hop. These are written even when the command
fails. --strict turns 404 and 5xx responses into errors.
*/
package main
