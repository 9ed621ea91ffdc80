package sharefs

// ReadResult carries the outcome of an asynchronous read.
type ReadResult struct {
	Data []byte
	Err  error
}

// ReadFileAsync starts reading name on a new goroutine and returns a
// channel that delivers the result. The channel is buffered, so the
// read completes even if the caller never receives.
func (fsys *FileSystem) ReadFileAsync(name string) <-chan ReadResult {
	ch := make(chan ReadResult, 1)
	go func() {
		data, err := fsys.ReadFile(name)
		ch <- ReadResult{Data: data, Err: err}
	}()
	return ch
}

// WriteFileAsync starts writing data to name on a new goroutine and
// returns a channel that delivers the result.
func (fsys *FileSystem) WriteFileAsync(name string, data []byte) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- fsys.WriteFile(name, data)
	}()
	return ch
}

// CopyAsync starts copying src to dst on a new goroutine and returns a
// channel that delivers the result.
func (fsys *FileSystem) CopyAsync(src, dst string, overwrite bool) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- fsys.Copy(src, dst, overwrite)
	}()
	return ch
}
