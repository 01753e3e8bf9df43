package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shanebarnes/goto/logger"
	"github.com/twinj/uuid"
)

const _VERSION string = "0.1.0"

func sigHandler(ch *chan os.Signal, nm *Manager) {
	sig := <-*ch
	fmt.Println("Captured sig", sig)
	nm.Shutdown()
	os.Exit(3)
}

func main() {
	uuid.RegisterGenerator(&uuid.GeneratorConfig{Resolution: 18465})

	logger.Init(log.Ldate|log.Ltime|log.Lmicroseconds, logger.Info, os.Stdout)

	topologyFile := flag.String("topology", "", "file containing the cluster topology")
	replicas := flag.Int("replicas", 0, "number of cluster nodes")
	nodePortBase := flag.Int("node-port-base", 0, "node r really listens on this base plus r plus 1")
	interceptPortBase := flag.Int("intercept-port-base", 0, "interception ports start here")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "version %s\n", _VERSION)
		fmt.Fprintln(os.Stderr, "usage:")
		flag.PrintDefaults()
	}
	flag.Parse()

	config := Config{
		Replicas:          *replicas,
		NodePortBase:      *nodePortBase,
		InterceptPortBase: *interceptPortBase,
	}

	if len(*topologyFile) > 0 {
		var err error
		if config, err = loadConfig(*topologyFile); err != nil {
			logger.PrintlnError(err.Error())
			os.Exit(1)
		}
	}

	nm, err := NewManager(config)
	if err != nil {
		logger.PrintlnError(err.Error())
		os.Exit(1)
	}

	if err := nm.Start(); err != nil {
		logger.PrintlnError(err.Error())
		os.Exit(1)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGABRT,
		syscall.SIGKILL,
		syscall.SIGSEGV,
		syscall.SIGTERM)

	sigHandler(&sigs, nm)
}
