/*
Package cli provides command-line helpers for the tailsim command.

Output Formatting:

Command results are written as text or JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Values implementing TextRenderer control their own text layout.

Progress Reporting:

Simulating many trace files reports progress and a running decision tally
on stderr:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(len(files))
	for _, f := range files {
		res := simulate(f)
		progress.Observe(res.FinalDecision.String())
	}
	progress.Finish()

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
