//go:build mage

// Package main provides build targets for sqlmaster using Mage.
//
// Usage:
//
//	mage build      Compile the sqlmaster binary to bin/
//	mage test       Run all tests with the race detector
//	mage testUnit   Run tests in short mode
//	mage lint       Run go vet and golangci-lint
//	mage clean      Remove build artifacts
//	mage install    Install sqlmaster to GOPATH/bin
//	mage stats      Print Go LOC and documentation word counts
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "sqlmaster"
	binaryDir  = "bin"
	cmdDir     = "./cmd/sqlmaster"
	versionVar = "github.com/mesh-intelligence/sqlmaster/internal/cli.Version"
)

// Build compiles the sqlmaster binary to bin/. The version comes from
// SQLMASTER_VERSION when set.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	args := []string{"build", "-v", "-o", filepath.Join(binaryDir, binaryName)}
	if v := os.Getenv("SQLMASTER_VERSION"); v != "" {
		args = append(args, "-ldflags", fmt.Sprintf("-X %s=%s", versionVar, v))
	}
	return sh.RunV("go", append(args, cmdDir)...)
}

// Test runs all tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// TestUnit runs tests in short mode.
func TestUnit() error {
	return sh.RunV("go", "test", "-short", "./...")
}

// Lint runs go vet and golangci-lint.
func Lint() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV("go", "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output("go", "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// Stats prints Go lines of code and documentation word counts.
func Stats() error {
	var prodLines, testLines int

	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			switch path {
			case "vendor", ".git", binaryDir, "magefiles", "_examples":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		count, countErr := countLines(path)
		if countErr != nil {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") {
			testLines += count
		} else {
			prodLines += count
		}
		return nil
	})
	if err != nil {
		return err
	}

	docWords := 0
	for _, path := range []string{"README.md", "DESIGN.md", "SPEC_FULL.md"} {
		words, err := countWordsInFile(path)
		if err != nil {
			continue
		}
		docWords += words
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Lines of code (Go, total):      %d\n", prodLines+testLines)
	fmt.Printf("Words (documentation):          %d\n", docWords)
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}

func countWordsInFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	count := 0
	inWord := false
	for _, r := range string(data) {
		if unicode.IsSpace(r) {
			inWord = false
		} else if !inWord {
			inWord = true
			count++
		}
	}
	return count, nil
}
