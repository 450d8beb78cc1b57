package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/tablestream-io/tablestream/src/engine"
	"github.com/tablestream-io/tablestream/src/errkind"
	"github.com/tablestream-io/tablestream/src/remote"
)

// exit codes, matching SPEC_FULL.md's error-kind taxonomy: 0 success, 1 any
// user-caused error (bad flags, bad SQL, missing file, type mismatch, CSV
// trouble), 2 an internal error (errkind.ErrInternal) that signals a bug
// rather than bad input.
const (
	exitOK            = 0
	exitUserError     = 1
	exitInternalError = 2
)

// exitCode classifies err per the taxonomy above: only errkind.ErrInternal
// earns the reserved internal-error code, everything else is a user error.
func exitCode(err error) int {
	if errors.Is(err, errkind.ErrInternal) {
		return exitInternalError
	}
	return exitUserError
}

func main() {
	dbPath := flag.String("db", "", "path to a local CSV file, or s3://bucket/key")
	delimiterFlag := flag.String("delimiter", ",", "field delimiter")
	sqlFlag := flag.String("sql", "", "run a single SQL statement and exit")
	fileFlag := flag.String("file", "", "run the SQL statements in this file and exit")
	bench := flag.Int("bench", 0, "repeat -sql this many times and report timing instead of results")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "tablestream: -db is required")
		os.Exit(exitUserError)
	}
	if len(*delimiterFlag) != 1 {
		fmt.Fprintln(os.Stderr, "tablestream: -delimiter must be a single character")
		os.Exit(exitUserError)
	}
	delimiter := rune((*delimiterFlag)[0])

	df, err := open(*dbPath, delimiter)
	if err != nil {
		log.Print(err)
		os.Exit(exitCode(err))
	}

	switch {
	case *bench > 0:
		if *sqlFlag == "" {
			fmt.Fprintln(os.Stderr, "tablestream: -bench requires -sql")
			os.Exit(exitUserError)
		}
		if err := runBench(df, *sqlFlag, *bench); err != nil {
			log.Print(err)
			os.Exit(exitCode(err))
		}
	case *sqlFlag != "":
		if err := runOne(df, *sqlFlag); err != nil {
			log.Print(err)
			os.Exit(exitCode(err))
		}
	case *fileFlag != "":
		if err := runFile(df, *fileFlag); err != nil {
			log.Print(err)
			os.Exit(exitCode(err))
		}
	default:
		if err := repl(df); err != nil {
			log.Print(err)
			os.Exit(exitCode(err))
		}
	}
}

func open(path string, delimiter rune) (*engine.Dataframe, error) {
	if bucket, key, err := remote.ParsePath(path); err == nil {
		return remote.LoadFromS3(context.Background(), bucket, key, delimiter)
	}
	return engine.FromCSV(path, delimiter)
}

func runOne(df *engine.Dataframe, sqlText string) error {
	ds, err := engine.Execute(sqlText, df)
	if err != nil {
		return err
	}
	fmt.Print(ds.PrettyPrint())
	return nil
}

func runFile(df *engine.Dataframe, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s", errkind.ErrIO, err)
	}
	for _, stmt := range splitStatements(string(data)) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if err := runOne(df, stmt); err != nil {
			return fmt.Errorf("in statement %q: %w", stmt, err)
		}
	}
	return nil
}

// splitStatements breaks a script into individual statements on semicolon
// boundaries. SPEC_FULL.md's Non-goals explicitly exclude running a
// multi-statement script as a single transactional unit; each statement
// here runs independently against the same Dataframe.
func splitStatements(script string) []string {
	return strings.Split(script, ";")
}

func repl(df *engine.Dataframe) error {
	fmt.Println("tablestream: interactive SQL shell, Ctrl-D to exit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := runOne(df, line); err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
	}
	return scanner.Err()
}

func runBench(df *engine.Dataframe, sqlText string, n int) error {
	durations := make([]time.Duration, n)
	for i := 0; i < n; i++ {
		start := time.Now()
		if _, err := engine.Execute(sqlText, df); err != nil {
			return err
		}
		durations[i] = time.Since(start)
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	fmt.Printf("ran %d times, total %v, average %v\n", n, total, total/time.Duration(n))
	return nil
}
