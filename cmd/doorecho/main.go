// doorecho is a minimal sample door: it greets the caller, echoes back
// every line typed until "quit", and exits cleanly on any of the
// library's terminal conditions. It exists to exercise doorsession end
// to end, the way a library's own example main exercises it.
package main

import (
	"log"
	"os"
	"time"

	"github.com/doorkit/doorcore/console"
	"github.com/doorkit/doorcore/control"
	"github.com/doorkit/doorcore/doorsession"
)

func main() {
	flags := doorsession.ParseArgs(os.Args[1:])
	for _, u := range flags.Unknown {
		log.Printf("doorecho: ignoring unrecognized flag %q", u)
	}

	cfg, err := control.LoadConfig("door.yaml")
	if err != nil {
		log.Fatalf("doorecho: loading door.yaml: %v", err)
	}
	store := control.NewConfigStore(cfg)

	session := doorsession.NewSession(console.NewLocal(), store)
	defer session.Close()

	reason, err := session.Open(flags)
	if reason != doorsession.ExitNone {
		log.Println(reason.Banner())
		time.Sleep(doorsession.ExitPause)
		if err != nil {
			log.Println(err)
		}
		return
	}

	session.RunGuarded(func() {
		if err := session.WriteColored("|0BWelcome to doorecho!|07\r\n"); err != nil {
			log.Printf("doorecho: greeting: %v", err)
			return
		}

		for {
			if r := session.Tick(); r != doorsession.ExitNone {
				log.Println(r.Banner())
				time.Sleep(doorsession.ExitPause)
				return
			}

			line, ok := session.Conn.ReadLine("\r\n", true, 0, 1000)
			if !ok {
				if session.Conn.Disconnected() {
					log.Println(doorsession.ExitCarrierDropped.Banner())
					time.Sleep(doorsession.ExitPause)
					return
				}
				continue // read_line's own 1s poll timed out; loop back to the tick
			}
			if line == "quit" {
				_ = session.WriteColored("|04Goodbye.|07\r\n")
				return
			}
			if err := session.WriteColored("You said: " + line + "\r\n"); err != nil {
				return
			}
		}
	})
}
