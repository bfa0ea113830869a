package ctl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// DecisionPolicy answers yes/no questions that gate side effects such as
// package installs or model downloads.
type DecisionPolicy interface {
	Approve(question string) bool
}

// alwaysApprove is the --yes policy.
type alwaysApprove struct{}

func (alwaysApprove) Approve(string) bool { return true }

// interactivePolicy prompts y/N on a terminal. Without a terminal it
// refuses, so unattended runs never install anything by accident.
type interactivePolicy struct {
	in    io.Reader
	isTTY func() bool
}

func newInteractivePolicy() *interactivePolicy {
	return &interactivePolicy{in: os.Stdin, isTTY: stdinIsTTY}
}

func (p *interactivePolicy) Approve(question string) bool {
	if !p.isTTY() {
		warn("[confirm] %s: stdin is not a terminal, refusing (use --yes to approve)", question)
		return false
	}
	fmt.Printf("%s [y/N]: ", question)
	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil {
		return false
	}
	resp := strings.ToLower(strings.TrimSpace(line))
	return resp == "y" || resp == "yes"
}

func stdinIsTTY() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// policyFor picks the decision policy for the parsed flags.
func policyFor(yes bool) DecisionPolicy {
	if yes {
		return alwaysApprove{}
	}
	return newInteractivePolicy()
}
