package util

import (
	"math/rand/v2"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const nicknameCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

var (
	adjectives = []string{"clever", "jolly", "brave", "sly", "gentle", "quiet", "rapid", "lucky", "witty", "calm"}
	animals    = []string{"panda", "fox", "raccoon", "koala", "lion", "otter", "falcon", "badger", "lynx", "heron"}
)

// GenerateNickname returns a readable nickname like brave_otter_k3x9q.
// The suffix keeps collisions unlikely but callers still have to check.
func GenerateNickname() (string, error) {
	suffix, err := gonanoid.Generate(nicknameCharset, 5)
	if err != nil {
		return "", err
	}

	return adjectives[rand.IntN(len(adjectives))] + "_" + animals[rand.IntN(len(animals))] + "_" + suffix, nil
}

// RequestID returns a short random identifier attached to every request
func RequestID() string {
	return gonanoid.Must(10)
}
