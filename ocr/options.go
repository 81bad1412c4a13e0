package ocr

import "strconv"

// WithTesseractPSM selects the page segmentation mode (0 to 13) for this
// input, for example 7 for a single text line.
func WithTesseractPSM(mode int) InputOption {
	return WithTesseractVariable("tessedit_pageseg_mode", strconv.Itoa(mode))
}

// WithTesseractWhitelist limits the characters the engine may output.
func WithTesseractWhitelist(chars string) InputOption {
	return WithTesseractVariable("tessedit_char_whitelist", chars)
}

// WithTesseractVariable sets one engine variable for this input. Inputs with
// different variables never share an engine instance.
func WithTesseractVariable(name, value string) InputOption {
	return func(in *Input) {
		if in.Metadata == nil {
			in.Metadata = make(map[string]string)
		}
		in.Metadata[name] = value
	}
}
