package form

// ParameterProcessor receives the parameters of a submission in order
type ParameterProcessor interface {
	AddParameter(name, value string) error
	AddFile(name string, file UploadFile) error
}
