package types

// Job pairs a tabular source file with the JSON document it is converted to.
type Job struct {
	Source      string `mapstructure:"source" yaml:"source"`
	Destination string `mapstructure:"destination" yaml:"destination"`
}

type ConversionResult struct {
	InputFile     string
	OutputFile    string
	ColumnsFound  []string
	RowsProcessed int
}

type FileData struct {
	Headers []string
	Rows    [][]string
}
