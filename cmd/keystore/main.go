package main

import (
	"flag"
	"fmt"
	"os"

	logrus "github.com/sirupsen/logrus"

	tlsolana "tokenlaunch/pkg/solana"
)

func main() {
	count := flag.Int("count", 1, "number of signer keypairs to generate")
	dir := flag.String("dir", "configs/keystore", "keystore directory")
	flag.Parse()

	password := os.Getenv("KEYSTORE_PASSWORD")
	if password == "" {
		logrus.Fatal("KEYSTORE_PASSWORD must be set")
	}
	if *count < 1 {
		logrus.Fatal("count must be at least 1")
	}

	km := tlsolana.NewKeyManager(*dir, password)
	for i := 0; i < *count; i++ {
		key, err := km.GenerateSigner()
		if err != nil {
			logrus.Fatalf("Failed to generate signer: %v", err)
		}
		fmt.Println(key.PublicKey().String())
	}
}
