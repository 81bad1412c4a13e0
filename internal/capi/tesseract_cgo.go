//go:build tesseract && cgo

package capi

/*
#cgo pkg-config: tesseract
#include <stdint.h>
#include <stdlib.h>
#include <tesseract/capi.h>

static int tk_get_int_variable(const TessBaseAPI *h, const char *name, int *value) {
	return TessBaseAPIGetIntVariable(h, name, value) ? 1 : 0;
}

static int tk_get_bool_variable(const TessBaseAPI *h, const char *name, int *value) {
	BOOL v = 0;
	int ok = TessBaseAPIGetBoolVariable(h, name, &v) ? 1 : 0;
	*value = v ? 1 : 0;
	return ok;
}

static int tk_get_double_variable(const TessBaseAPI *h, const char *name, double *value) {
	return TessBaseAPIGetDoubleVariable(h, name, value) ? 1 : 0;
}

static int tk_init4(TessBaseAPI *h, const char *datapath, const char *language, int mode,
		char **configs, int configs_size, char **names, char **values, size_t vars_size, int non_debug) {
	return TessBaseAPIInit4(h, datapath, language, (TessOcrEngineMode)mode, configs, configs_size,
		names, values, vars_size, non_debug ? 1 : 0);
}

static int tk_init5(TessBaseAPI *h, const char *data, int data_size, const char *language, int mode,
		char **configs, int configs_size, char **names, char **values, size_t vars_size, int non_debug) {
	return TessBaseAPIInit5(h, data, data_size, language, (TessOcrEngineMode)mode, configs, configs_size,
		names, values, vars_size, non_debug ? 1 : 0);
}

static int tk_process_pages(TessBaseAPI *h, const char *filename, const char *retry, int timeout, const char *outputbase) {
	TessResultRenderer *r = NULL;
	if (outputbase != NULL) {
		r = TessTextRendererCreate(outputbase);
		if (r == NULL) {
			return 0;
		}
	}
	int ok = TessBaseAPIProcessPages(h, filename, retry, timeout, r) ? 1 : 0;
	if (r != NULL) {
		TessDeleteResultRenderer(r);
	}
	return ok;
}

static int tk_detect_os(TessBaseAPI *h, int *deg, float *conf, const char **script, float *script_conf) {
	return TessBaseAPIDetectOrientationScript(h, deg, conf, script, script_conf) ? 1 : 0;
}

static int tk_text_direction(TessBaseAPI *h, int *offset, float *slope) {
	return TessBaseAPIGetTextDirection(h, offset, slope) ? 1 : 0;
}

static int tk_result_bounding_box(const TessResultIterator *it, int level, int *l, int *t, int *r, int *b) {
	const TessPageIterator *p = TessResultIteratorGetPageIteratorConst(it);
	return TessPageIteratorBoundingBox(p, (TessPageIteratorLevel)level, l, t, r, b) ? 1 : 0;
}

static int tk_result_is_at_beginning_of(const TessResultIterator *it, int level) {
	const TessPageIterator *p = TessResultIteratorGetPageIteratorConst(it);
	return TessPageIteratorIsAtBeginningOf(p, (TessPageIteratorLevel)level) ? 1 : 0;
}
*/
import "C"

import "unsafe"

// Default returns the libtesseract-backed Library.
func Default() (Library, error) {
	return native{}, nil
}

type native struct{}

type nativeText struct{ p *C.char }

func (t nativeText) String() string { return C.GoString(t.p) }
func (t nativeText) Release()       { C.TessDeleteText(t.p) }

func newText(p *C.char) Text {
	if p == nil {
		return nil
	}
	return nativeText{p: p}
}

type nativeInts struct{ p *C.int }

func (a nativeInts) At(i int) int32 {
	return int32(*(*C.int)(unsafe.Add(unsafe.Pointer(a.p), uintptr(i)*C.sizeof_int)))
}

func (a nativeInts) Release() { C.TessDeleteIntArray(a.p) }

type nativeTexts struct{ p **C.char }

func (a nativeTexts) At(i int) (string, bool) {
	s := *(**C.char)(unsafe.Add(unsafe.Pointer(a.p), uintptr(i)*unsafe.Sizeof(a.p)))
	if s == nil {
		return "", false
	}
	return C.GoString(s), true
}

func (a nativeTexts) Release() { C.TessDeleteTextArray(a.p) }

func newTexts(p **C.char) TextArray {
	if p == nil {
		return nil
	}
	return nativeTexts{p: p}
}

func api(h Handle) *C.TessBaseAPI             { return (*C.TessBaseAPI)(unsafe.Pointer(h)) }
func pageIter(it PageIter) *C.TessPageIterator { return (*C.TessPageIterator)(unsafe.Pointer(it)) }
func resultIter(it ResultIter) *C.TessResultIterator {
	return (*C.TessResultIterator)(unsafe.Pointer(it))
}

// cstrings copies ss into C memory. The returned pointer is nil for an empty
// slice; free must always be called.
func cstrings(ss []string) (**C.char, func()) {
	if len(ss) == 0 {
		return nil, func() {}
	}
	ptrs := make([]*C.char, len(ss))
	for i, s := range ss {
		ptrs[i] = C.CString(s)
	}
	return (**C.char)(unsafe.Pointer(&ptrs[0])), func() {
		for _, p := range ptrs {
			C.free(unsafe.Pointer(p))
		}
	}
}

func optionalCString(s string) (*C.char, func()) {
	if s == "" {
		return nil, func() {}
	}
	p := C.CString(s)
	return p, func() { C.free(unsafe.Pointer(p)) }
}

func borrowed(p *C.char) (string, bool) {
	if p == nil {
		return "", false
	}
	return C.GoString(p), true
}

func (native) Version() string { return C.GoString(C.TessVersion()) }

func (native) Create() Handle   { return Handle(unsafe.Pointer(C.TessBaseAPICreate())) }
func (native) Delete(h Handle) { C.TessBaseAPIDelete(api(h)) }
func (native) End(h Handle)    { C.TessBaseAPIEnd(api(h)) }

func (native) Init1(h Handle, datapath, language string, mode int, configs []string) int {
	cPath, freePath := optionalCString(datapath)
	defer freePath()
	cLang := C.CString(language)
	defer C.free(unsafe.Pointer(cLang))
	cConfigs, freeConfigs := cstrings(configs)
	defer freeConfigs()
	return int(C.TessBaseAPIInit1(api(h), cPath, cLang, C.TessOcrEngineMode(mode), cConfigs, C.int(len(configs))))
}

func (native) Init2(h Handle, datapath, language string, mode int) int {
	cPath, freePath := optionalCString(datapath)
	defer freePath()
	cLang := C.CString(language)
	defer C.free(unsafe.Pointer(cLang))
	return int(C.TessBaseAPIInit2(api(h), cPath, cLang, C.TessOcrEngineMode(mode)))
}

func (native) Init3(h Handle, datapath, language string) int {
	cPath, freePath := optionalCString(datapath)
	defer freePath()
	cLang := C.CString(language)
	defer C.free(unsafe.Pointer(cLang))
	return int(C.TessBaseAPIInit3(api(h), cPath, cLang))
}

func (native) Init4(h Handle, datapath, language string, p InitParams) int {
	cPath, freePath := optionalCString(datapath)
	defer freePath()
	cLang := C.CString(language)
	defer C.free(unsafe.Pointer(cLang))
	cConfigs, freeConfigs := cstrings(p.Configs)
	defer freeConfigs()
	cNames, freeNames := cstrings(p.VarNames)
	defer freeNames()
	cValues, freeValues := cstrings(p.VarValues)
	defer freeValues()
	return int(C.tk_init4(api(h), cPath, cLang, C.int(p.Mode), cConfigs, C.int(len(p.Configs)),
		cNames, cValues, C.size_t(len(p.VarNames)), boolInt(p.NonDebugOnly)))
}

func (native) Init5(h Handle, data []byte, language string, p InitParams) int {
	var cData unsafe.Pointer
	if len(data) > 0 {
		cData = C.CBytes(data)
		defer C.free(cData)
	}
	cLang := C.CString(language)
	defer C.free(unsafe.Pointer(cLang))
	cConfigs, freeConfigs := cstrings(p.Configs)
	defer freeConfigs()
	cNames, freeNames := cstrings(p.VarNames)
	defer freeNames()
	cValues, freeValues := cstrings(p.VarValues)
	defer freeValues()
	return int(C.tk_init5(api(h), (*C.char)(cData), C.int(len(data)), cLang, C.int(p.Mode), cConfigs,
		C.int(len(p.Configs)), cNames, cValues, C.size_t(len(p.VarNames)), boolInt(p.NonDebugOnly)))
}

func boolInt(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

func (native) InitForAnalysePage(h Handle) { C.TessBaseAPIInitForAnalysePage(api(h)) }

func (native) InitLanguagesAsString(h Handle) (string, bool) {
	return borrowed(C.TessBaseAPIGetInitLanguagesAsString(api(h)))
}

func (native) LoadedLanguages(h Handle) TextArray {
	return newTexts(C.TessBaseAPIGetLoadedLanguagesAsVector(api(h)))
}

func (native) AvailableLanguages(h Handle) TextArray {
	return newTexts(C.TessBaseAPIGetAvailableLanguagesAsVector(api(h)))
}

func (native) SetVariable(h Handle, name, value string) int {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	cValue := C.CString(value)
	defer C.free(unsafe.Pointer(cValue))
	return int(C.TessBaseAPISetVariable(api(h), cName, cValue))
}

func (native) SetDebugVariable(h Handle, name, value string) int {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	cValue := C.CString(value)
	defer C.free(unsafe.Pointer(cValue))
	return int(C.TessBaseAPISetDebugVariable(api(h), cName, cValue))
}

func (native) StringVariable(h Handle, name string) (string, bool) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	return borrowed(C.TessBaseAPIGetStringVariable(api(h), cName))
}

func (native) IntVariable(h Handle, name string) (int, int) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	var v C.int
	ok := C.tk_get_int_variable(api(h), cName, &v)
	return int(v), int(ok)
}

func (native) BoolVariable(h Handle, name string) (bool, int) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	var v C.int
	ok := C.tk_get_bool_variable(api(h), cName, &v)
	return v != 0, int(ok)
}

func (native) DoubleVariable(h Handle, name string) (float64, int) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	var v C.double
	ok := C.tk_get_double_variable(api(h), cName, &v)
	return float64(v), int(ok)
}

func (native) PrintVariablesToFile(h Handle, filename string) int {
	cName := C.CString(filename)
	defer C.free(unsafe.Pointer(cName))
	return int(C.TessBaseAPIPrintVariablesToFile(api(h), cName))
}

func (native) ReadConfigFile(h Handle, filename string) {
	cName := C.CString(filename)
	defer C.free(unsafe.Pointer(cName))
	C.TessBaseAPIReadConfigFile(api(h), cName)
}

func (native) ReadDebugConfigFile(h Handle, filename string) {
	cName := C.CString(filename)
	defer C.free(unsafe.Pointer(cName))
	C.TessBaseAPIReadDebugConfigFile(api(h), cName)
}

func (native) SetPageSegMode(h Handle, mode int) {
	C.TessBaseAPISetPageSegMode(api(h), C.TessPageSegMode(mode))
}

func (native) PageSegMode(h Handle) int { return int(C.TessBaseAPIGetPageSegMode(api(h))) }

func (native) SetInputName(h Handle, name string) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	C.TessBaseAPISetInputName(api(h), cName)
}

func (native) InputName(h Handle) (string, bool) {
	return borrowed(C.TessBaseAPIGetInputName(api(h)))
}

func (native) SetOutputName(h Handle, name string) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	C.TessBaseAPISetOutputName(api(h), cName)
}

func (native) Datapath(h Handle) (string, bool) {
	return borrowed(C.TessBaseAPIGetDatapath(api(h)))
}

func (native) SetImage(h Handle, data []byte, width, height, bytesPerPixel, bytesPerLine int) {
	buf := C.CBytes(data)
	defer C.free(buf)
	C.TessBaseAPISetImage(api(h), (*C.uchar)(buf), C.int(width), C.int(height), C.int(bytesPerPixel), C.int(bytesPerLine))
}

func (native) SetSourceResolution(h Handle, ppi int) {
	C.TessBaseAPISetSourceResolution(api(h), C.int(ppi))
}

func (native) SourceYResolution(h Handle) int { return int(C.TessBaseAPIGetSourceYResolution(api(h))) }

func (native) SetRectangle(h Handle, left, top, width, height int) {
	C.TessBaseAPISetRectangle(api(h), C.int(left), C.int(top), C.int(width), C.int(height))
}

func (native) ThresholdedImageScaleFactor(h Handle) int {
	return int(C.TessBaseAPIGetThresholdedImageScaleFactor(api(h)))
}

func (native) Recognize(h Handle) int { return int(C.TessBaseAPIRecognize(api(h), nil)) }

func (native) ProcessPages(h Handle, filename, retryConfig string, timeoutMillis int, outputBase string) int {
	cName := C.CString(filename)
	defer C.free(unsafe.Pointer(cName))
	cRetry, freeRetry := optionalCString(retryConfig)
	defer freeRetry()
	cBase, freeBase := optionalCString(outputBase)
	defer freeBase()
	return int(C.tk_process_pages(api(h), cName, cRetry, C.int(timeoutMillis), cBase))
}

func (native) Clear(h Handle)                   { C.TessBaseAPIClear(api(h)) }
func (native) ClearAdaptiveClassifier(h Handle) { C.TessBaseAPIClearAdaptiveClassifier(api(h)) }

func (native) UTF8Text(h Handle) Text { return newText(C.TessBaseAPIGetUTF8Text(api(h))) }
func (native) HOCRText(h Handle, page int) Text {
	return newText(C.TessBaseAPIGetHOCRText(api(h), C.int(page)))
}
func (native) AltoText(h Handle, page int) Text {
	return newText(C.TessBaseAPIGetAltoText(api(h), C.int(page)))
}
func (native) TsvText(h Handle, page int) Text {
	return newText(C.TessBaseAPIGetTsvText(api(h), C.int(page)))
}
func (native) BoxText(h Handle, page int) Text {
	return newText(C.TessBaseAPIGetBoxText(api(h), C.int(page)))
}
func (native) LSTMBoxText(h Handle, page int) Text {
	return newText(C.TessBaseAPIGetLSTMBoxText(api(h), C.int(page)))
}
func (native) WordStrBoxText(h Handle, page int) Text {
	return newText(C.TessBaseAPIGetWordStrBoxText(api(h), C.int(page)))
}
func (native) UNLVText(h Handle) Text { return newText(C.TessBaseAPIGetUNLVText(api(h))) }

func (native) MeanTextConf(h Handle) int { return int(C.TessBaseAPIMeanTextConf(api(h))) }

func (native) AllWordConfidences(h Handle) IntArray {
	p := C.TessBaseAPIAllWordConfidences(api(h))
	if p == nil {
		return nil
	}
	return nativeInts{p: p}
}

func (native) AdaptToWordStr(h Handle, mode int, word string) int {
	cWord := C.CString(word)
	defer C.free(unsafe.Pointer(cWord))
	return int(C.TessBaseAPIAdaptToWordStr(api(h), C.TessPageSegMode(mode), cWord))
}

func (native) IsValidWord(h Handle, word string) int {
	cWord := C.CString(word)
	defer C.free(unsafe.Pointer(cWord))
	return int(C.TessBaseAPIIsValidWord(api(h), cWord))
}

func (native) Unichar(h Handle, id int) (string, bool) {
	return borrowed(C.TessBaseAPIGetUnichar(api(h), C.int(id)))
}

func (native) DetectOrientationScript(h Handle) (Orientation, int) {
	var (
		deg        C.int
		conf       C.float
		script     *C.char
		scriptConf C.float
	)
	ok := C.tk_detect_os(api(h), &deg, &conf, &script, &scriptConf)
	o := Orientation{Degrees: int(deg), Confidence: float32(conf), ScriptConfidence: float32(scriptConf)}
	if script != nil {
		o.Script = C.GoString(script)
	}
	return o, int(ok)
}

func (native) SetMinOrientationMargin(h Handle, margin float64) {
	C.TessBaseAPISetMinOrientationMargin(api(h), C.double(margin))
}

func (native) TextDirection(h Handle) (int, float32, int) {
	var (
		offset C.int
		slope  C.float
	)
	ok := C.tk_text_direction(api(h), &offset, &slope)
	return int(offset), float32(slope), int(ok)
}

func (native) AnalyseLayout(h Handle) PageIter {
	return PageIter(unsafe.Pointer(C.TessBaseAPIAnalyseLayout(api(h))))
}

func (native) Iterator(h Handle) ResultIter {
	return ResultIter(unsafe.Pointer(C.TessBaseAPIGetIterator(api(h))))
}

func (native) MutableIterator(h Handle) ResultIter {
	return ResultIter(unsafe.Pointer(C.TessBaseAPIGetMutableIterator(api(h))))
}

func (native) PageIteratorDelete(it PageIter) { C.TessPageIteratorDelete(pageIter(it)) }
func (native) PageIteratorBegin(it PageIter)  { C.TessPageIteratorBegin(pageIter(it)) }

func (native) PageIteratorNext(it PageIter, level int) int {
	return int(C.TessPageIteratorNext(pageIter(it), C.TessPageIteratorLevel(level)))
}

func (native) PageIteratorIsAtBeginningOf(it PageIter, level int) int {
	return int(C.TessPageIteratorIsAtBeginningOf(pageIter(it), C.TessPageIteratorLevel(level)))
}

func (native) PageIteratorIsAtFinalElement(it PageIter, level, element int) int {
	return int(C.TessPageIteratorIsAtFinalElement(pageIter(it), C.TessPageIteratorLevel(level), C.TessPageIteratorLevel(element)))
}

func (native) PageIteratorBoundingBox(it PageIter, level int) (Box, int) {
	var l, t, r, b C.int
	ok := C.TessPageIteratorBoundingBox(pageIter(it), C.TessPageIteratorLevel(level), &l, &t, &r, &b)
	return Box{Left: int(l), Top: int(t), Right: int(r), Bottom: int(b)}, int(ok)
}

func (native) PageIteratorBlockType(it PageIter) int {
	return int(C.TessPageIteratorBlockType(pageIter(it)))
}

func (native) ResultIteratorDelete(it ResultIter) { C.TessResultIteratorDelete(resultIter(it)) }

func (native) ResultIteratorNext(it ResultIter, level int) int {
	return int(C.TessResultIteratorNext(resultIter(it), C.TessPageIteratorLevel(level)))
}

func (native) ResultIteratorText(it ResultIter, level int) Text {
	return newText(C.TessResultIteratorGetUTF8Text(resultIter(it), C.TessPageIteratorLevel(level)))
}

func (native) ResultIteratorConfidence(it ResultIter, level int) float32 {
	return float32(C.TessResultIteratorConfidence(resultIter(it), C.TessPageIteratorLevel(level)))
}

func (native) ResultIteratorBoundingBox(it ResultIter, level int) (Box, int) {
	var l, t, r, b C.int
	ok := C.tk_result_bounding_box(resultIter(it), C.int(level), &l, &t, &r, &b)
	return Box{Left: int(l), Top: int(t), Right: int(r), Bottom: int(b)}, int(ok)
}

func (native) ResultIteratorIsAtBeginningOf(it ResultIter, level int) int {
	return int(C.tk_result_is_at_beginning_of(resultIter(it), C.int(level)))
}

func (native) ResultIteratorWordRecognitionLanguage(it ResultIter) (string, bool) {
	return borrowed(C.TessResultIteratorWordRecognitionLanguage(resultIter(it)))
}
