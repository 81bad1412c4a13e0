// Package capitest provides an in-memory capi.Library that records every
// native call, tracks ownership of every buffer and iterator it hands out,
// and can be told to fail. It panics on double release so ownership bugs
// surface in tests.
package capitest

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unsafe"

	"github.com/wudi/tesskit/internal/capi"
)

// Call is one recorded native call.
type Call struct {
	Op     string
	Handle capi.Handle
	Args   []string
}

// Word is a recognized word served by the fake iterators.
type Word struct {
	Text       string
	Confidence float32
	Box        capi.Box
	Language   string
	// BlockStart marks the first word of a block, LineStart the first
	// word of a line inside a block.
	BlockStart bool
	LineStart  bool
}

// Instance is the state of one fake TessBaseAPI.
type Instance struct {
	DataPath    string
	Language    string
	Mode        int
	Configs     []string
	Data        []byte
	Initialized bool
	Deleted     bool
	Variables   map[string]string
	PageSegMode int
	InputName   string
	OutputName  string
	Image       ImageCall
	Rectangle   [4]int
	Resolution  int
	Recognized  bool
}

// ImageCall records the last SetImage arguments.
type ImageCall struct {
	Len           int
	Width         int
	Height        int
	BytesPerPixel int
	BytesPerLine  int
}

// Library is a fake capi.Library. Exported fields configure behavior and may
// be changed between calls; they are read under the library lock.
type Library struct {
	mu sync.Mutex

	// FailCreate makes Create return a null handle.
	FailCreate bool
	// InitStatus decides the status of every initializer. Nil means success.
	InitStatus func(dataPath, language string) int
	// RejectVariable makes SetVariable/SetDebugVariable return 0 for a name.
	RejectVariable func(name string) bool
	// Texts maps an output op ("UTF8", "HOCR", "Alto", "Tsv", "Box",
	// "LSTMBox", "WordStrBox", "UNLV") to its content. Missing means null.
	Texts map[string]string
	// Confidences is returned raw by AllWordConfidences, terminator included.
	// Nil means null.
	Confidences []int32
	// Loaded and Available languages; nil means null.
	Loaded    []string
	Available []string
	// RecognizeStatus is returned by Recognize.
	RecognizeStatus int
	// NullLayout/NullIterator make the cursor factories return null.
	NullLayout   bool
	NullIterator bool
	// Words drive the iterators.
	Words []Word
	// Orientation and its status.
	Orientation   capi.Orientation
	OrientationOK int
	// TextDirection values and status.
	DirectionOffset int
	DirectionSlope  float32
	DirectionOK     int
	// ProcessPagesStatus is returned by ProcessPages; on success
	// ProcessPagesOutput is written to outputBase + ".txt".
	ProcessPagesStatus int
	ProcessPagesOutput string
	// PanicOn makes the named op panic, for lock-poisoning tests.
	PanicOn string

	instances map[capi.Handle]*Instance
	order     []capi.Handle
	calls     []Call
	live      map[unsafe.Pointer]string
	released  int
}

// New returns a fake with permissive defaults.
func New() *Library {
	return &Library{
		Texts:              map[string]string{},
		OrientationOK:      1,
		DirectionOK:        1,
		ProcessPagesStatus: 1,
		instances:          map[capi.Handle]*Instance{},
		live:               map[unsafe.Pointer]string{},
	}
}

var _ capi.Library = (*Library)(nil)

func (l *Library) record(op string, h capi.Handle, args ...string) *Instance {
	l.calls = append(l.calls, Call{Op: op, Handle: h, Args: args})
	if l.PanicOn == op {
		panic("capitest: injected panic in " + op)
	}
	if h == nil {
		return nil
	}
	inst, ok := l.instances[h]
	if !ok || inst.Deleted {
		panic(fmt.Sprintf("capitest: %s on unknown or deleted handle", op))
	}
	return inst
}

// track registers an owned allocation.
func (l *Library) track(p unsafe.Pointer, kind string) {
	l.live[p] = kind
}

func (l *Library) release(p unsafe.Pointer, kind string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	got, ok := l.live[p]
	if !ok || got != kind {
		panic(fmt.Sprintf("capitest: double or mismatched release of %s", kind))
	}
	delete(l.live, p)
	l.released++
	l.calls = append(l.calls, Call{Op: "Delete" + kind})
}

// Calls returns a copy of the call log.
func (l *Library) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Call(nil), l.calls...)
}

// Ops returns the op names recorded for h, in order.
func (l *Library) Ops(h capi.Handle) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var ops []string
	for _, c := range l.calls {
		if c.Handle == h {
			ops = append(ops, c.Op)
		}
	}
	return ops
}

// Count returns how many times op was called on any handle.
func (l *Library) Count(op string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset clears the call log.
func (l *Library) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}

// Handles returns every handle ever created, in creation order.
func (l *Library) Handles() []capi.Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]capi.Handle(nil), l.order...)
}

// Instance returns a snapshot of the state behind h.
func (l *Library) Instance(h capi.Handle) Instance {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.instances[h]
	if inst == nil {
		return Instance{}
	}
	cp := *inst
	cp.Variables = make(map[string]string, len(inst.Variables))
	for k, v := range inst.Variables {
		cp.Variables[k] = v
	}
	return cp
}

// Outstanding returns the number of buffers and iterators not yet released.
func (l *Library) Outstanding() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.live)
}

// Released returns how many buffers and iterators were released.
func (l *Library) Released() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.released
}

// LiveInstances returns the number of created but not deleted handles.
func (l *Library) LiveInstances() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, inst := range l.instances {
		if !inst.Deleted {
			n++
		}
	}
	return n
}

func (l *Library) Version() string { return "5.5.0-fake" }

func (l *Library) Create() capi.Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, Call{Op: "Create"})
	if l.FailCreate {
		return nil
	}
	inst := &Instance{Variables: map[string]string{}, PageSegMode: 3}
	h := capi.Handle(unsafe.Pointer(inst))
	l.instances[h] = inst
	l.order = append(l.order, h)
	return h
}

func (l *Library) Delete(h capi.Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("Delete", h)
	inst.Deleted = true
}

func (l *Library) End(h capi.Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("End", h)
	inst.Initialized = false
	inst.Recognized = false
}

func (l *Library) init(inst *Instance, op, dataPath, language string, mode int, configs []string, data []byte, p capi.InitParams) int {
	status := 0
	if l.InitStatus != nil {
		status = l.InitStatus(dataPath, language)
	}
	inst.Variables = map[string]string{}
	inst.Recognized = false
	if status != 0 {
		inst.Initialized = false
		return status
	}
	inst.DataPath, inst.Language, inst.Mode = dataPath, language, mode
	inst.Configs = append([]string(nil), configs...)
	inst.Data = append([]byte(nil), data...)
	for i, name := range p.VarNames {
		inst.Variables[name] = p.VarValues[i]
	}
	inst.Initialized = true
	return 0
}

func (l *Library) Init1(h capi.Handle, datapath, language string, mode int, configs []string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("Init1", h, datapath, language, strconv.Itoa(mode))
	return l.init(inst, "Init1", datapath, language, mode, configs, nil, capi.InitParams{})
}

func (l *Library) Init2(h capi.Handle, datapath, language string, mode int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("Init2", h, datapath, language, strconv.Itoa(mode))
	return l.init(inst, "Init2", datapath, language, mode, nil, nil, capi.InitParams{})
}

func (l *Library) Init3(h capi.Handle, datapath, language string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("Init3", h, datapath, language)
	return l.init(inst, "Init3", datapath, language, 3, nil, nil, capi.InitParams{})
}

func (l *Library) Init4(h capi.Handle, datapath, language string, p capi.InitParams) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("Init4", h, datapath, language, strconv.Itoa(p.Mode))
	return l.init(inst, "Init4", datapath, language, p.Mode, p.Configs, nil, p)
}

func (l *Library) Init5(h capi.Handle, data []byte, language string, p capi.InitParams) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("Init5", h, strconv.Itoa(len(data)), language, strconv.Itoa(p.Mode))
	return l.init(inst, "Init5", "", language, p.Mode, p.Configs, data, p)
}

func (l *Library) InitForAnalysePage(h capi.Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("InitForAnalysePage", h)
}

func (l *Library) InitLanguagesAsString(h capi.Handle) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("InitLanguagesAsString", h)
	return inst.Language, true
}

func (l *Library) textArray(values []string, kind string) capi.TextArray {
	if values == nil {
		return nil
	}
	a := &texts{lib: l, values: append([]string(nil), values...)}
	l.track(unsafe.Pointer(a), kind)
	return a
}

func (l *Library) LoadedLanguages(h capi.Handle) capi.TextArray {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("LoadedLanguages", h)
	return l.textArray(l.Loaded, "TextArray")
}

func (l *Library) AvailableLanguages(h capi.Handle) capi.TextArray {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("AvailableLanguages", h)
	return l.textArray(l.Available, "TextArray")
}

func (l *Library) SetVariable(h capi.Handle, name, value string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("SetVariable", h, name, value)
	if l.RejectVariable != nil && l.RejectVariable(name) {
		return 0
	}
	inst.Variables[name] = value
	return 1
}

func (l *Library) SetDebugVariable(h capi.Handle, name, value string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("SetDebugVariable", h, name, value)
	if l.RejectVariable != nil && l.RejectVariable(name) {
		return 0
	}
	inst.Variables[name] = value
	return 1
}

func (l *Library) StringVariable(h capi.Handle, name string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("StringVariable", h, name)
	v, ok := inst.Variables[name]
	return v, ok
}

func (l *Library) IntVariable(h capi.Handle, name string) (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("IntVariable", h, name)
	n, err := strconv.Atoi(inst.Variables[name])
	if err != nil {
		return 0, 0
	}
	return n, 1
}

func (l *Library) BoolVariable(h capi.Handle, name string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("BoolVariable", h, name)
	switch inst.Variables[name] {
	case "1", "T", "true":
		return true, 1
	case "0", "F", "false":
		return false, 1
	}
	return false, 0
}

func (l *Library) DoubleVariable(h capi.Handle, name string) (float64, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("DoubleVariable", h, name)
	f, err := strconv.ParseFloat(inst.Variables[name], 64)
	if err != nil {
		return 0, 0
	}
	return f, 1
}

func (l *Library) PrintVariablesToFile(h capi.Handle, filename string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("PrintVariablesToFile", h, filename)
	names := make([]string, 0, len(inst.Variables))
	for k := range inst.Variables {
		names = append(names, k)
	}
	sort.Strings(names)
	f, err := os.Create(filename)
	if err != nil {
		return 0
	}
	defer f.Close()
	for _, k := range names {
		fmt.Fprintf(f, "%s\t%s\n", k, inst.Variables[k])
	}
	return 1
}

func (l *Library) ReadConfigFile(h capi.Handle, filename string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("ReadConfigFile", h, filename)
}

func (l *Library) ReadDebugConfigFile(h capi.Handle, filename string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("ReadDebugConfigFile", h, filename)
}

func (l *Library) SetPageSegMode(h capi.Handle, mode int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("SetPageSegMode", h, strconv.Itoa(mode))
	inst.PageSegMode = mode
}

func (l *Library) PageSegMode(h capi.Handle) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.record("PageSegMode", h).PageSegMode
}

func (l *Library) SetInputName(h capi.Handle, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("SetInputName", h, name).InputName = name
}

func (l *Library) InputName(h capi.Handle) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("InputName", h)
	return inst.InputName, inst.InputName != ""
}

func (l *Library) SetOutputName(h capi.Handle, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("SetOutputName", h, name).OutputName = name
}

func (l *Library) Datapath(h capi.Handle) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("Datapath", h)
	return inst.DataPath, inst.Initialized
}

func (l *Library) SetImage(h capi.Handle, data []byte, width, height, bytesPerPixel, bytesPerLine int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("SetImage", h)
	inst.Image = ImageCall{Len: len(data), Width: width, Height: height, BytesPerPixel: bytesPerPixel, BytesPerLine: bytesPerLine}
	inst.Recognized = false
}

func (l *Library) SetSourceResolution(h capi.Handle, ppi int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("SetSourceResolution", h, strconv.Itoa(ppi)).Resolution = ppi
}

func (l *Library) SourceYResolution(h capi.Handle) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.record("SourceYResolution", h).Resolution
}

func (l *Library) SetRectangle(h capi.Handle, left, top, width, height int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("SetRectangle", h).Rectangle = [4]int{left, top, width, height}
}

func (l *Library) ThresholdedImageScaleFactor(h capi.Handle) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("ThresholdedImageScaleFactor", h)
	return 1
}

func (l *Library) Recognize(h capi.Handle) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record("Recognize", h)
	inst.Recognized = l.RecognizeStatus == 0
	return l.RecognizeStatus
}

func (l *Library) ProcessPages(h capi.Handle, filename, retryConfig string, timeoutMillis int, outputBase string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("ProcessPages", h, filename, retryConfig, strconv.Itoa(timeoutMillis), outputBase)
	if l.ProcessPagesStatus != 1 {
		return l.ProcessPagesStatus
	}
	if outputBase != "" {
		if err := os.WriteFile(outputBase+".txt", []byte(l.ProcessPagesOutput), 0o644); err != nil {
			return 0
		}
	}
	return 1
}

func (l *Library) Clear(h capi.Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("Clear", h).Recognized = false
}

func (l *Library) ClearAdaptiveClassifier(h capi.Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("ClearAdaptiveClassifier", h)
}

func (l *Library) text(op string, h capi.Handle, args ...string) capi.Text {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record(op, h, args...)
	s, ok := l.Texts[op]
	if !ok {
		return nil
	}
	t := &text{lib: l, s: s}
	l.track(unsafe.Pointer(t), "Text")
	return t
}

func (l *Library) UTF8Text(h capi.Handle) capi.Text { return l.text("UTF8", h) }
func (l *Library) HOCRText(h capi.Handle, page int) capi.Text {
	return l.text("HOCR", h, strconv.Itoa(page))
}
func (l *Library) AltoText(h capi.Handle, page int) capi.Text {
	return l.text("Alto", h, strconv.Itoa(page))
}
func (l *Library) TsvText(h capi.Handle, page int) capi.Text {
	return l.text("Tsv", h, strconv.Itoa(page))
}
func (l *Library) BoxText(h capi.Handle, page int) capi.Text {
	return l.text("Box", h, strconv.Itoa(page))
}
func (l *Library) LSTMBoxText(h capi.Handle, page int) capi.Text {
	return l.text("LSTMBox", h, strconv.Itoa(page))
}
func (l *Library) WordStrBoxText(h capi.Handle, page int) capi.Text {
	return l.text("WordStrBox", h, strconv.Itoa(page))
}
func (l *Library) UNLVText(h capi.Handle) capi.Text { return l.text("UNLV", h) }

func (l *Library) MeanTextConf(h capi.Handle) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("MeanTextConf", h)
	if len(l.Words) == 0 {
		return 0
	}
	var sum float32
	for _, w := range l.Words {
		sum += w.Confidence
	}
	return int(sum / float32(len(l.Words)))
}

func (l *Library) AllWordConfidences(h capi.Handle) capi.IntArray {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("AllWordConfidences", h)
	if l.Confidences == nil {
		return nil
	}
	a := &ints{lib: l, values: append([]int32(nil), l.Confidences...)}
	l.track(unsafe.Pointer(a), "IntArray")
	return a
}

func (l *Library) AdaptToWordStr(h capi.Handle, mode int, word string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("AdaptToWordStr", h, strconv.Itoa(mode), word)
	if word == "" {
		return 0
	}
	return 1
}

func (l *Library) IsValidWord(h capi.Handle, word string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("IsValidWord", h, word)
	for _, w := range l.Words {
		if w.Text == word {
			return 1
		}
	}
	return 0
}

func (l *Library) Unichar(h capi.Handle, id int) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("Unichar", h, strconv.Itoa(id))
	if id < 0 || id > 0x10FFFF {
		return "", false
	}
	return string(rune(id)), true
}

func (l *Library) DetectOrientationScript(h capi.Handle) (capi.Orientation, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("DetectOrientationScript", h)
	return l.Orientation, l.OrientationOK
}

func (l *Library) SetMinOrientationMargin(h capi.Handle, margin float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("SetMinOrientationMargin", h, strconv.FormatFloat(margin, 'f', -1, 64))
}

func (l *Library) TextDirection(h capi.Handle) (int, float32, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("TextDirection", h)
	return l.DirectionOffset, l.DirectionSlope, l.DirectionOK
}

func (l *Library) AnalyseLayout(h capi.Handle) capi.PageIter {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record("AnalyseLayout", h)
	if l.NullLayout {
		return nil
	}
	it := &iter{lib: l, words: append([]Word(nil), l.Words...)}
	l.track(unsafe.Pointer(it), "PageIterator")
	return capi.PageIter(unsafe.Pointer(it))
}

func (l *Library) resultIter(op string, h capi.Handle) capi.ResultIter {
	l.mu.Lock()
	defer l.mu.Unlock()
	inst := l.record(op, h)
	if l.NullIterator || !inst.Recognized {
		return nil
	}
	it := &iter{lib: l, words: append([]Word(nil), l.Words...)}
	l.track(unsafe.Pointer(it), "ResultIterator")
	return capi.ResultIter(unsafe.Pointer(it))
}

func (l *Library) Iterator(h capi.Handle) capi.ResultIter { return l.resultIter("Iterator", h) }
func (l *Library) MutableIterator(h capi.Handle) capi.ResultIter {
	return l.resultIter("MutableIterator", h)
}

func (l *Library) PageIteratorDelete(it capi.PageIter) {
	l.release(unsafe.Pointer(it), "PageIterator")
}

func (l *Library) PageIteratorBegin(it capi.PageIter) { asIter(unsafe.Pointer(it)).pos = 0 }

func (l *Library) PageIteratorNext(it capi.PageIter, level int) int {
	return asIter(unsafe.Pointer(it)).next(level)
}

func (l *Library) PageIteratorIsAtBeginningOf(it capi.PageIter, level int) int {
	return asIter(unsafe.Pointer(it)).atBeginningOf(level)
}

func (l *Library) PageIteratorIsAtFinalElement(it capi.PageIter, level, element int) int {
	i := asIter(unsafe.Pointer(it))
	if i.pos >= len(i.words)-1 {
		return 1
	}
	return 0
}

func (l *Library) PageIteratorBoundingBox(it capi.PageIter, level int) (capi.Box, int) {
	return asIter(unsafe.Pointer(it)).box(level)
}

func (l *Library) PageIteratorBlockType(it capi.PageIter) int {
	if len(asIter(unsafe.Pointer(it)).words) == 0 {
		return 0
	}
	return 1
}

func (l *Library) ResultIteratorDelete(it capi.ResultIter) {
	l.release(unsafe.Pointer(it), "ResultIterator")
}

func (l *Library) ResultIteratorNext(it capi.ResultIter, level int) int {
	return asIter(unsafe.Pointer(it)).next(level)
}

func (l *Library) ResultIteratorText(it capi.ResultIter, level int) capi.Text {
	i := asIter(unsafe.Pointer(it))
	if i.pos >= len(i.words) {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	t := &text{lib: l, s: i.text(level)}
	l.track(unsafe.Pointer(t), "Text")
	return t
}

func (l *Library) ResultIteratorConfidence(it capi.ResultIter, level int) float32 {
	i := asIter(unsafe.Pointer(it))
	if i.pos >= len(i.words) {
		return 0
	}
	return i.confidence(level)
}

func (l *Library) ResultIteratorBoundingBox(it capi.ResultIter, level int) (capi.Box, int) {
	return asIter(unsafe.Pointer(it)).box(level)
}

func (l *Library) ResultIteratorIsAtBeginningOf(it capi.ResultIter, level int) int {
	return asIter(unsafe.Pointer(it)).atBeginningOf(level)
}

func (l *Library) ResultIteratorWordRecognitionLanguage(it capi.ResultIter) (string, bool) {
	i := asIter(unsafe.Pointer(it))
	if i.pos >= len(i.words) || i.words[i.pos].Language == "" {
		return "", false
	}
	return i.words[i.pos].Language, true
}

type text struct {
	lib *Library
	s   string
}

func (t *text) String() string { return t.s }
func (t *text) Release()       { t.lib.release(unsafe.Pointer(t), "Text") }

type ints struct {
	lib    *Library
	values []int32
}

func (a *ints) At(i int) int32 {
	if i >= len(a.values) {
		panic("capitest: read past the end of an int array")
	}
	return a.values[i]
}

func (a *ints) Release() { a.lib.release(unsafe.Pointer(a), "IntArray") }

type texts struct {
	lib    *Library
	values []string
}

func (a *texts) At(i int) (string, bool) {
	if i > len(a.values) {
		panic("capitest: read past the end of a text array")
	}
	if i == len(a.values) {
		return "", false
	}
	return a.values[i], true
}

func (a *texts) Release() { a.lib.release(unsafe.Pointer(a), "TextArray") }

// iter walks Words. A block starts at a BlockStart word; a paragraph or
// line starts at a BlockStart or LineStart word; words and symbols are one
// word each.
type iter struct {
	lib   *Library
	words []Word
	pos   int
}

func asIter(p unsafe.Pointer) *iter { return (*iter)(p) }

func (i *iter) startsAt(j, level int) bool {
	if j == 0 || level >= 3 {
		return true
	}
	w := i.words[j]
	if level == 0 {
		return w.BlockStart
	}
	return w.BlockStart || w.LineStart
}

// end is the index one past the last word of the element at pos.
func (i *iter) end(level int) int {
	j := i.pos + 1
	for j < len(i.words) && !i.startsAt(j, level) {
		j++
	}
	return j
}

func (i *iter) next(level int) int {
	if i.pos >= len(i.words) {
		return 0
	}
	i.pos = i.end(level)
	if i.pos >= len(i.words) {
		return 0
	}
	return 1
}

func (i *iter) atBeginningOf(level int) int {
	if i.pos >= len(i.words) || !i.startsAt(i.pos, level) {
		return 0
	}
	return 1
}

func (i *iter) box(level int) (capi.Box, int) {
	if i.pos >= len(i.words) {
		return capi.Box{}, 0
	}
	b := i.words[i.pos].Box
	for _, w := range i.words[i.pos+1 : i.end(level)] {
		b.Left = min(b.Left, w.Box.Left)
		b.Top = min(b.Top, w.Box.Top)
		b.Right = max(b.Right, w.Box.Right)
		b.Bottom = max(b.Bottom, w.Box.Bottom)
	}
	return b, 1
}

func (i *iter) text(level int) string {
	words := i.words[i.pos:i.end(level)]
	parts := make([]string, len(words))
	for k, w := range words {
		parts[k] = w.Text
	}
	return strings.Join(parts, " ")
}

func (i *iter) confidence(level int) float32 {
	words := i.words[i.pos:i.end(level)]
	var sum float32
	for _, w := range words {
		sum += w.Confidence
	}
	return sum / float32(len(words))
}
