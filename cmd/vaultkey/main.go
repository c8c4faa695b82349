// vaultkey создаёт парольную фразу хранилища паролей и кладёт её в keyring,
// откуда бот читает её при пустом ENCRYPTION_KEY.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/Freeeeeet/coderelay_bot/internal/credential"
	"github.com/Freeeeeet/coderelay_bot/internal/vault"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "vaultkey: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var (
		opts  credential.Options
		force bool
		check bool
	)

	flagSet := pflag.NewFlagSet("vaultkey", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.StringVar(&opts.Backend, "backend", envOr("KEYRING_BACKEND", "file"), "keyring backend: file or auto")
	flagSet.StringVar(&opts.Dir, "dir", os.Getenv("KEYRING_DIR"), "directory of the file keyring")
	flagSet.StringVar(&opts.Password, "file-password", os.Getenv("KEYRING_PASSWORD"), "password of the file keyring")
	flagSet.BoolVar(&force, "force", false, "replace an existing passphrase (stored app passwords become unreadable)")
	flagSet.BoolVar(&check, "check", false, "only verify that a usable passphrase is stored")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		fmt.Fprintln(out, "Usage: vaultkey [--check] [--force] [--backend file|auto] [--dir DIR]")
		flagSet.PrintDefaults()
		return nil
	}

	store, err := credential.Open(opts)
	if err != nil {
		return err
	}

	existing, err := store.Get(credential.PassphraseKey)
	if err != nil && !errors.Is(err, credential.ErrNoPassphrase) {
		return err
	}

	if check {
		if existing == "" {
			return credential.ErrNoPassphrase
		}
		if _, err := vault.New(existing); err != nil {
			return fmt.Errorf("stored passphrase is unusable: %w", err)
		}
		fmt.Fprintln(out, "✅ passphrase is present")
		return nil
	}

	if existing != "" && !force {
		return errors.New("passphrase already stored, use --force to replace it")
	}

	passphrase, err := generate()
	if err != nil {
		return err
	}
	if err := store.Set(credential.PassphraseKey, passphrase); err != nil {
		return err
	}

	fmt.Fprintln(out, "✅ new passphrase stored in keyring")
	return nil
}

// generate 32 случайных байта в base64
func generate() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate passphrase: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
