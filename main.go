package main

import "github.com/inovacc/gitlab-dumper/cmd"

func main() {
	cmd.Execute()
}
