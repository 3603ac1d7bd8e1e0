package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/grading"
	sheetsvc "github.com/trezcool/darasa/services/spreadsheet"
)

// importGrades enters the scores of a class spreadsheet; rows failing on their own are reported, not fatal.
func (cli *commandLine) importGrades(classID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening spreadsheet")
	}
	defer func() { _ = f.Close() }()

	rows, err := sheetsvc.ParseGrades(f)
	if err != nil {
		return err
	}

	results, err := cli.svcs.Gradebook.ImportGrades(context.Background(), core.CleanString(classID), rows)
	if err != nil {
		return err
	}

	var imported int
	for _, res := range results {
		if res.OK {
			imported++
			continue
		}
		fmt.Fprintf(cli.out, "row %d (%s): %s\n", res.Row, res.StudentID, res.Error)
	}
	fmt.Fprintf(cli.out, "%d imported, %d failed\n", imported, len(results)-imported)
	cli.logger.Info(fmt.Sprintf("grades of class %q imported", classID), map[string]interface{}{
		"imported": imported,
		"failed":   len(results) - imported,
	})
	return nil
}

func (cli *commandLine) checkScales(path string) error {
	scales, err := grading.LoadScalesFile(path)
	if err != nil {
		return err
	}
	for _, s := range scales {
		fmt.Fprintf(cli.out, "%s (%s): %d bands %v\n", s.ID, s.Name, len(s.Bands), s.Labels())
	}
	fmt.Fprintf(cli.out, "%d scales OK\n", len(scales))
	return nil
}
