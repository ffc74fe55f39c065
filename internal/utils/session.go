package utils

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// LoginState is the signed in user, kept between invocations.
type LoginState struct {
	UserID     string    `toml:"user_id"`
	Email      string    `toml:"email"`
	SignedInAt time.Time `toml:"signed_in_at"`
}

func getLoginPath(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "current_user.toml"), nil
}

func SaveLoginState(dir string, state *LoginState) error {
	path, err := getLoginPath(dir)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(state)
}

func LoadLoginState(dir string) (*LoginState, error) {
	path, err := getLoginPath(dir)
	if err != nil {
		return nil, err
	}

	var state LoginState
	if _, err := toml.DecodeFile(path, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

func ClearLoginState(dir string) error {
	path, err := getLoginPath(dir)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func LoginExists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "current_user.toml"))
	return err == nil
}
