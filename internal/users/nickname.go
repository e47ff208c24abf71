package users

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

const maxNicknameAttempts = 10

var (
	nicknameAdjectives = []string{
		"clever", "jolly", "brave", "sly", "gentle", "swift", "quiet", "bold",
		"lucky", "calm", "eager", "fuzzy", "witty", "mighty", "nimble", "sunny",
	}
	nicknameNouns = []string{
		"panda", "fox", "raccoon", "koala", "lion", "otter", "falcon", "badger",
		"heron", "lynx", "walrus", "beaver", "gecko", "marmot", "puffin", "yak",
	}
)

// GenerateNickname returns a random adjective_noun_NNN handle.
func GenerateNickname() (string, error) {
	adj, err := pick(nicknameAdjectives)
	if err != nil {
		return "", err
	}
	noun, err := pick(nicknameNouns)
	if err != nil {
		return "", err
	}
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s_%03d", adj, noun, n.Int64()), nil
}

type nicknameChecker interface {
	NicknameExists(ctx context.Context, nickname string) (bool, error)
}

// UniqueNickname draws generated nicknames until one is free.
func UniqueNickname(ctx context.Context, repo nicknameChecker) (string, error) {
	for i := 0; i < maxNicknameAttempts; i++ {
		candidate, err := GenerateNickname()
		if err != nil {
			return "", fmt.Errorf("generate nickname: %w", err)
		}
		taken, err := repo.NicknameExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check nickname: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free nickname after %d attempts", maxNicknameAttempts)
}

func pick(words []string) (string, error) {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
	if err != nil {
		return "", err
	}
	return words[i.Int64()], nil
}
