package main

import (
	"fmt"

	echoapi "github.com/trezcool/ratiba/apps/api/echo"
)

func (cli *commandLine) token(subject, username string, isAdmin bool) error {
	if username == "" {
		username = subject
	}
	token, err := echoapi.GenerateToken(cli.conf, echoapi.NewClaims(cli.conf, subject, username, isAdmin))
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
