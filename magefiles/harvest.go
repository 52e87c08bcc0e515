//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Harvest runs a harvest for the profile in $SCHOLAR_LINK using the built binary.
func Harvest() error {
	mg.Deps(Build)
	link := os.Getenv("SCHOLAR_LINK")
	if link == "" {
		return fmt.Errorf("set SCHOLAR_LINK to a Google Scholar profile URL")
	}
	return sh.RunV("bin/"+binName, "harvest", "--scholar-link", link)
}

// Catalog prints the catalog of earlier harvests.
func Catalog() error {
	mg.Deps(Build)
	return sh.RunV("bin/"+binName, "catalog")
}
