package dom

// InputType names a beforeinput input type, as delivered by the
// environment.
type InputType string

const (
	InsertText            InputType = "insertText"
	InsertParagraph       InputType = "insertParagraph"
	InsertLineBreak       InputType = "insertLineBreak"
	DeleteContentBackward InputType = "deleteContentBackward"
	DeleteContentForward  InputType = "deleteContentForward"
	DeleteWordBackward    InputType = "deleteWordBackward"
	DeleteWordForward     InputType = "deleteWordForward"
	InsertFromPaste       InputType = "insertFromPaste"
	InsertFromDrop        InputType = "insertFromDrop"
	InsertCompositionText InputType = "insertCompositionText"
	HistoryUndo           InputType = "historyUndo"
	HistoryRedo           InputType = "historyRedo"
)

// InputEvent is a beforeinput event record.
type InputEvent struct {
	Type     InputType
	Data     string
	Transfer *DataTransfer
}

// KeyEvent is a keydown event record. Key follows the DOM KeyboardEvent.key
// values ("a", "Enter", "ArrowLeft", "Backspace", ...).
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Shift bool
	Alt   bool
	Meta  bool
}

// CompositionEvent is a compositionstart/update/end record.
type CompositionEvent struct {
	Data string
}
