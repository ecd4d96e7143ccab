//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package stageexec

import "os/exec"

func configureProcessGroup(*exec.Cmd) {}
