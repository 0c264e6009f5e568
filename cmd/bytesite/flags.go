package main

import "github.com/spf13/pflag"

type globalFlags struct {
	configPath string
	logLevel   string
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.configPath, "config", "", "config file (default site.yaml, or $BYTESITE_CONFIG)")
	fs.StringVarP(&g.logLevel, "log-level", "l", "", "log level (debug, info, warn, error)")
}

type serveFlags struct {
	addr  string
	watch bool
}

func (f *serveFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.addr, "addr", "", "address to listen on (default from config)")
	fs.BoolVar(&f.watch, "watch", true, "reload on content and theme changes")
}

type buildFlags struct {
	force bool
	out   string
}

func (f *buildFlags) register(fs *pflag.FlagSet) {
	fs.BoolVar(&f.force, "force", false, "rebuild even when nothing changed")
	fs.StringVarP(&f.out, "out", "o", "", "output directory (default from config)")
}
