package main

import "github.com/okian/clutch/pkg/logger"

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}
