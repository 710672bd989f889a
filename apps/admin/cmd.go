package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/Fernando88323/PortalDocente-sub001/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db     *sql.DB
	usrSvc *user.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a migration command (up, down, status, ...)")
	fmt.Println("  adddocente -username USERNAME -email EMAIL -refid ID [-decano] [-admin] - create a portal account")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addDocenteCmd := flag.NewFlagSet("adddocente", flag.ExitOnError)
	addDocenteUname := addDocenteCmd.String("username", "", "The docente's username.")
	addDocenteEmail := addDocenteCmd.String("email", "", "The docente's email.")
	addDocenteRefID := addDocenteCmd.Int("refid", 0, "The docente's reference id in the academic-records system.")
	addDocenteDecano := addDocenteCmd.Bool("decano", false, "Grant the decano role too.")
	addDocenteAdmin := addDocenteCmd.Bool("admin", false, "Grant all roles. The password will be prompted next.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adddocente":
		if err := addDocenteCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addDocenteUname == "" || *addDocenteEmail == "" {
			addDocenteCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			if err == errHelp {
				addDocenteCmd.Usage()
			}
			return err
		}
		return cli.addDocente(*addDocenteUname, *addDocenteEmail, pwd, *addDocenteRefID, *addDocenteDecano, *addDocenteAdmin)
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
			if err == errHelp {
				resetPasswordCmd.Usage()
			}
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errHelp
	}
	return string(pwd), nil
}
