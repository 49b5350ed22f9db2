package core

import (
	"errors"
	"strings"

	"github.com/smarty/deliver/contracts"
)

const (
	TokenEnvironmentVariable     = "DELIVER_TOKEN"
	TokenFileEnvironmentVariable = "DELIVER_TOKEN_FILE"
)

// CredentialParser finds the bearer token sent to the content server. No
// token at all is not an error; the server may allow anonymous reads.
type CredentialParser struct {
	storage     contracts.FileReader
	environment contracts.Environment
}

func NewCredentialParser(storage contracts.FileReader, environment contracts.Environment) CredentialParser {
	return CredentialParser{storage: storage, environment: environment}
}

func (this CredentialParser) Parse() (string, error) {
	token, _ := this.environment.LookupEnv(TokenEnvironmentVariable)
	if token = strings.TrimSpace(token); token != "" {
		return token, nil
	}
	path, _ := this.environment.LookupEnv(TokenFileEnvironmentVariable)
	if path = strings.TrimSpace(path); path == "" {
		return "", nil
	}
	data, err := this.storage.ReadFile(path)
	if err != nil {
		return "", err
	}
	if token = strings.TrimSpace(string(data)); token == "" {
		return "", errBlankTokenFile
	}
	return token, nil
}

var errBlankTokenFile = errors.New("the file named by " + TokenFileEnvironmentVariable + " is blank")
