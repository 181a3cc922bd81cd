package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"

	"sekolah-backend/internal/models"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	getenvFunc       = os.Getenv         // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	migrate     func() error
	seedClasses func(ctx context.Context) (int, error)
	createUser  func(name, email, password string, role models.UserRole) error
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate                              - create/update database tables")
	fmt.Println("  seed-classes                         - insert missing classes 7A..9x (idempotent)")
	fmt.Println("  create-admin -email EMAIL -name NAME - create a back-office account (password from ADMIN_PASSWORD or prompt)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createAdminCmd := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	createAdminEmail := createAdminCmd.String("email", "", "Login email of the account.")
	createAdminName := createAdminCmd.String("name", "", "Display name of the account.")
	createAdminOperator := createAdminCmd.Bool("operator", false, "Create an operator instead of a super admin.")

	switch args[1] {
	case "migrate":
		if err := cli.migrate(); err != nil {
			return err
		}
		fmt.Println("Migrasi selesai.")
		return nil

	case "seed-classes":
		added, err := cli.seedClasses(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("%d kelas baru ditambahkan.\n", added)
		return nil

	case "create-admin":
		if err := createAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createAdminEmail == "" || *createAdminName == "" {
			createAdminCmd.Usage()
			return errHelp
		}
		pwd := getenvFunc("ADMIN_PASSWORD")
		if pwd == "" {
			fmt.Print("Enter password:")
			b, err := readPasswordFunc(int(syscall.Stdin))
			fmt.Println()
			if err != nil {
				return err
			}
			pwd = string(b)
		}
		if len(pwd) < 8 {
			return errors.New("password minimal 8 karakter")
		}
		role := models.RoleSuperAdmin
		if *createAdminOperator {
			role = models.RoleOperator
		}
		if err := cli.createUser(*createAdminName, *createAdminEmail, pwd, role); err != nil {
			return err
		}
		fmt.Printf("Akun %s (%s) dibuat.\n", *createAdminEmail, role)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}
