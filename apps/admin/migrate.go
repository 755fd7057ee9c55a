package main

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/trezcool/matokeo/storage/database"
)

var gooseRunFunc = goose.RunContext // mockable

func (cli *commandLine) migrate(args []string) error {
	dir, err := database.SetUpGoose(cli.engine)
	if err != nil {
		return err
	}
	return gooseRunFunc(context.Background(), args[0], cli.db.DB, dir, args[1:]...)
}

func (cli *commandLine) seed() error {
	created, err := cli.scaleSvc.Seed(context.Background())
	if err != nil {
		return err
	}
	if len(created) == 0 {
		fmt.Println("Nothing to seed.")
		return nil
	}
	for _, name := range created {
		fmt.Printf("Created grade system %q\n", name)
	}
	return nil
}
