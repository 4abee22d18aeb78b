package cmd

const DESCRIPTION = `
WarpVPN brings a VPN tunnel up and down on a schedule. Windows are
kept by a background daemon that survives restarts and sleeps, so a
tunnel planned for tonight comes up even if this terminal is gone.
`

const (
	ConnectDescription = `The connect command brings the tunnel up right away
with no scheduled disconnect. Any stored schedule is replaced.

Example:
        warpvpn connect --config office.ovpn --name office

`
	ScheduleDescription = `The schedule command stores a tunnel window. Give it
either two RFC3339 instants or a wall clock window in UTC.
A window that is already open connects immediately, an
end before the start rolls over to the next day, and
--days makes the window repeat on those weekdays.

Example:
        warpvpn schedule --config office.ovpn --at 22:00 --until 06:00
        warpvpn schedule --config office.ovpn --start 2026-10-16T22:00:00Z --end 2026-10-17T06:00:00Z
        warpvpn schedule --config office.ovpn --at 08:00 --until 17:00 --days weekdays

`
	StopDescription = `The stop command tears the tunnel down and clears
every stored schedule.

Example:
        warpvpn stop

`
	CancelDescription = `The cancel command removes one schedule and its timers.
Canceling an unknown id succeeds.

Example:
        warpvpn cancel <schedule id>

`
	ListDescription = `The list command displays stored schedules with their
armed timers and, for recurring ones, the next occurrence.

Example:
        warpvpn list

`
)

const HELP_TEMPL = `Usage: {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}
{{.Description}}{{if .VisibleCommands}}
Commands:{{range .VisibleCategories}}{{if .Name}}

{{.Name}}:{{range .VisibleCommands}}
  {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{else}}{{range .VisibleCommands}}
{{"\t"}}{{index .Names 0}}{{"\t:\t"}}{{.Usage}}{{end}}{{end}}{{end}}{{end}}{{if .VisibleFlags}}{{end}}

Use "{{.HelpName}} help <command>" for more information about any command.

`

const CMD_HELP_TEMPL = `{{if .Description}}{{.Description}}{{else}}{{.HelpName}} - {{.Usage}}

{{end}}Usage:
        {{.HelpName}} {{if .UsageText}}{{.UsageText}}{{else}}[arguments...]{{end}}{{if .VisibleFlags}}

Supported Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

`
