//go:build !unix

package buffer

func mmapAlloc(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func mmapFree(data []byte) error {
	return nil
}
