package main

import (
	"log"
	"os"
)

func main() {
	log.SetFlags(log.Ltime | log.Lshortfile)
	os.Exit(NewApp(parseConfig()).Run())
}
