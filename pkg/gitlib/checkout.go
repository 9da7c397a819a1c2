package gitlib

import (
	"fmt"
	"os"

	git2go "github.com/libgit2/git2go/v34"
)

// CheckoutTreeTo materializes the working tree of the given commit into dir.
// The directory must exist and be exclusive to the caller; the repository's
// own working tree and index are left untouched.
func (r *Repository) CheckoutTreeTo(hash Hash, dir string) error {
	commit, err := r.LookupCommit(hash)
	if err != nil {
		return err
	}
	defer commit.Free()

	tree, err := commit.tree()
	if err != nil {
		return err
	}
	defer tree.Free()

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("checkout target: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("checkout target %s: not a directory", dir)
	}

	opts := git2go.CheckoutOptions{
		Strategy:        git2go.CheckoutForce | git2go.CheckoutDontUpdateIndex,
		TargetDirectory: dir,
	}

	err = r.repo.CheckoutTree(tree, &opts)
	if err != nil {
		return fmt.Errorf("checkout tree %s: %w", hash, err)
	}

	return nil
}
