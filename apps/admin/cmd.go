package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/darasa/apps/shared"
	"github.com/trezcool/darasa/core"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db     *sql.DB // nil with the in-memory storage
	svcs   shared.Services
	logger core.Logger
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -name NAME -username USERNAME -email EMAIL [-admin] - create or update a user; the password is prompted")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...] - run a migration command (up, down, status, redo, version...)")
	fmt.Fprintln(cli.out, "  importgrades -class CLASS -file FILE.xlsx - import class grades from a spreadsheet")
	fmt.Fprintln(cli.out, "  checkscales -file FILE.yaml - validate a grading scales file")
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Grant every role to the user.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	importGradesCmd := flag.NewFlagSet("importgrades", flag.ContinueOnError)
	importGradesClass := importGradesCmd.String("class", "", "The class the grades belong to.")
	importGradesFile := importGradesCmd.String("file", "", "The .xlsx spreadsheet to import.")

	checkScalesCmd := flag.NewFlagSet("checkscales", flag.ContinueOnError)
	checkScalesFile := checkScalesCmd.String("file", "", "The YAML scales file to check.")

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, importGradesCmd, checkScalesCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" && *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, pwd, *addUserAdmin)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "importgrades":
		if err := importGradesCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importGradesClass == "" || *importGradesFile == "" {
			importGradesCmd.Usage()
			return errHelp
		}
		return cli.importGrades(*importGradesClass, *importGradesFile)

	case "checkscales":
		if err := checkScalesCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *checkScalesFile == "" {
			checkScalesCmd.Usage()
			return errHelp
		}
		return cli.checkScales(*checkScalesFile)

	default:
		cli.printUsage()
		return errHelp
	}
}
