package crypto

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	"github.com/cometbft/cometbft/privval"
)

// PV is an ed25519 signing key loaded from a CometBFT key file. Voters and the
// administrator sign ballot transactions with it.
type PV struct {
	privateKey crypto.PrivKey
	publicKey  crypto.PubKey
}

func LoadFilePV(keyFilePath string) (*PV, error) {
	keyJSONBytes, err := os.ReadFile(keyFilePath)
	if err != nil {
		return nil, err
	}
	pvKey := privval.FilePVKey{}
	err = cmtjson.Unmarshal(keyJSONBytes, &pvKey)
	if err != nil {
		return nil, fmt.Errorf("error reading key from %v: %w", keyFilePath, err)
	}

	return &PV{
		privateKey: pvKey.PrivKey,
		publicKey:  pvKey.PubKey,
	}, nil
}

// GenFilePV writes a fresh key file, refusing to overwrite an existing one.
func GenFilePV(keyFilePath string) (*PV, error) {
	if _, err := os.Stat(keyFilePath); err == nil {
		return nil, fmt.Errorf("key file %v already exists", keyFilePath)
	}
	if err := os.MkdirAll(filepath.Dir(keyFilePath), 0o700); err != nil {
		return nil, err
	}
	stateFile := keyFilePath + ".state"
	filePV := privval.GenFilePV(keyFilePath, stateFile)
	filePV.Key.Save()
	return &PV{
		privateKey: filePV.Key.PrivKey,
		publicKey:  filePV.Key.PubKey,
	}, nil
}

func (k *PV) PublicKey() []byte {
	return k.publicKey.Bytes()
}

func (k *PV) Address() string {
	return k.publicKey.Address().String()
}

func (k *PV) Sign(data []byte) ([]byte, error) {
	return k.privateKey.Sign(data)
}
