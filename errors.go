package halfsize

// OpenError reports a file that could not be opened for conversion.
type OpenError struct {
	Path   string
	Output bool
	Err    error
}

func (e *OpenError) Error() string {
	if e.Output {
		return "halfsize: open output " + e.Path + ": " + e.Err.Error()
	}
	return "halfsize: open input " + e.Path + ": " + e.Err.Error()
}

func (e *OpenError) Unwrap() error { return e.Err }

// WriteError reports a failure writing converted output.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return "halfsize: write output: " + e.Err.Error() }

func (e *WriteError) Unwrap() error { return e.Err }
