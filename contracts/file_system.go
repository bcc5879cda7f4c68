package contracts

import "os"

type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

type FileWriter interface {
	WriteFile(path string, content []byte) error
}

type FileCopier interface {
	CopyFile(source, target string) error
}

type Deleter interface {
	Delete(path string) error
}

type FileChecker interface {
	Stat(path string) (os.FileInfo, error)
}

type Environment interface {
	LookupEnv(key string) (value string, set bool)
}
