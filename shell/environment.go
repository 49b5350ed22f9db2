package shell

import "os"

// Environment reads the variables of the running process.
type Environment struct{}

func NewEnvironment() Environment { return Environment{} }

func (Environment) LookupEnv(key string) (string, bool) { return os.LookupEnv(key) }
