//go:build mage

// Package main provides build targets for the massive-collections project using Mage.
//
// Usage:
//
//	mage build          Compile the massive-collections binary to bin/
//	mage test           Run all tests
//	mage testUnit       Run tests without the SQLite end-to-end suites
//	mage testSQLite     Run only the SQLite end-to-end suites
//	mage cover          Run all tests and write coverage.out
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install massive-collections to GOPATH/bin
//	mage stats          Print Go line counts per package
package main

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "massive-collections"
	binaryDir  = "bin"
	cmdDir     = "./cmd/massive-collections"
	versionVar = "github.com/aluzed/massive-collections/internal/cli.Version"
	sqliteRun  = "SQLite"

	coverProfile = "coverage.out"
)

// version returns the nearest git tag, or "dev" outside a tagged checkout.
func version() string {
	out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || out == "" {
		return "dev"
	}
	return strings.TrimPrefix(out, "v")
}

// Build compiles the massive-collections binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	ldflags := fmt.Sprintf("-X %s=%s", versionVar, version())
	return sh.RunV("go", "build", "-v", "-ldflags", ldflags, "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// TestUnit runs every test except the SQLite end-to-end suites.
func TestUnit() error {
	return sh.RunV("go", "test", "-skip", sqliteRun, "./...")
}

// TestSQLite runs only the SQLite end-to-end suites.
func TestSQLite() error {
	return sh.RunV("go", "test", "-run", sqliteRun, "./...")
}

// Cover runs all tests with coverage and prints the per-function summary.
func Cover() error {
	if err := sh.RunV("go", "test", "-coverprofile="+coverProfile, "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func="+coverProfile)
}

// Lint vets the module, then runs golangci-lint.
func Lint() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes bin/ and coverage.out.
func Clean() error {
	for _, p := range []string{binaryDir, coverProfile} {
		if err := sh.Rm(p); err != nil {
			return err
		}
	}
	return nil
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

// Stats prints production and test line counts of every Go package.
func Stats() error {
	type counts struct{ prod, test int }
	byPkg := map[string]*counts{}

	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != "." && (strings.HasPrefix(d.Name(), "_") || strings.HasPrefix(d.Name(), ".") || path == binaryDir) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return err
		}
		pkg := filepath.Dir(path)
		if byPkg[pkg] == nil {
			byPkg[pkg] = &counts{}
		}
		if strings.HasSuffix(path, "_test.go") {
			byPkg[pkg].test += n
		} else {
			byPkg[pkg].prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	pkgs := make([]string, 0, len(byPkg))
	for p := range byPkg {
		pkgs = append(pkgs, p)
	}
	sort.Strings(pkgs)

	var total counts
	fmt.Printf("%-28s %8s %8s\n", "package", "prod", "test")
	for _, p := range pkgs {
		c := byPkg[p]
		fmt.Printf("%-28s %8d %8d\n", p, c.prod, c.test)
		total.prod += c.prod
		total.test += c.test
	}
	fmt.Printf("%-28s %8d %8d\n", "total", total.prod, total.test)
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}
