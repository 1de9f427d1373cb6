// Command ralinkctl inspects and monitors Ralink wireless interfaces.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	"k8s.io/klog/v2"
)

func main() {
	klog.InitFlags(nil)
	defer klog.Flush()

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&interfacesCmd{}, "")
	subcommands.Register(&scanCmd{}, "")
	subcommands.Register(&monitorCmd{}, "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
