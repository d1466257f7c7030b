package keymaps

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type KeyDefinition struct {
	DefaultKey string
	Help       string
}

var KeyDefinitions = map[string]KeyDefinition{
	"ShowHelp":   {"?", "show/hide commands"},
	"QuitApp":    {"q,ctrl+c", "quit"},
	"SwitchPane": {"tab", "switch between board and calendar"},
	"Refresh":    {"ctrl+r", "reload board and calendar"},

	"Up":    {"up,k", "move up"},
	"Down":  {"down,j", "move down"},
	"Left":  {"left,h", "move left"},
	"Right": {"right,l", "move right"},

	"MoveUp":    {"shift+up,K", "drag card or event up"},
	"MoveDown":  {"shift+down,J", "drag card or event down"},
	"MoveLeft":  {"shift+left,H", "drag card or event left"},
	"MoveRight": {"shift+right,L", "drag card or event right"},

	"AddTask":      {"a", "add task to column"},
	"QuickAdd":     {"n", "quick add to backlog"},
	"EditTask":     {"e,enter", "edit task / open event"},
	"DeleteTask":   {"d", "delete task or event"},
	"ScheduleTask": {"s", "schedule card at calendar cursor"},
	"Unschedule":   {"u", "unschedule card"},
	"NewEvent":     {"c", "create event at calendar cursor"},

	"TagFilter": {"t", "tag filter"},
	"ToggleTag": {"space,enter", "toggle tag"},
	"ClearTags": {"x", "clear tag filter"},

	"PrevWeek":    {"[", "previous week"},
	"NextWeek":    {"]", "next week"},
	"JumpToToday": {"g", "jump to today"},
	"Shorter":     {"-", "shorten event"},
	"Longer":      {"+,=", "lengthen event"},

	"NarrowColumn": {"<", "narrow column"},
	"WidenColumn":  {">", "widen column"},

	"Save":               {"ctrl+s", "save"},
	"Cancel":             {"esc", "cancel"},
	"NextField":          {"tab,down", "next field"},
	"PrevField":          {"shift+tab,up", "previous field"},
	"RemoveFromCalendar": {"ctrl+x", "remove from calendar"},
	"DeleteFromForm":     {"ctrl+d", "delete task"},
}

type KeyMap struct {
	ShowHelp   key.Binding
	QuitApp    key.Binding
	SwitchPane key.Binding
	Refresh    key.Binding

	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding

	MoveUp    key.Binding
	MoveDown  key.Binding
	MoveLeft  key.Binding
	MoveRight key.Binding

	AddTask      key.Binding
	QuickAdd     key.Binding
	EditTask     key.Binding
	DeleteTask   key.Binding
	ScheduleTask key.Binding
	Unschedule   key.Binding
	NewEvent     key.Binding

	TagFilter key.Binding
	ToggleTag key.Binding
	ClearTags key.Binding

	PrevWeek    key.Binding
	NextWeek    key.Binding
	JumpToToday key.Binding
	Shorter     key.Binding
	Longer      key.Binding

	NarrowColumn key.Binding
	WidenColumn  key.Binding

	Save               key.Binding
	Cancel             key.Binding
	NextField          key.Binding
	PrevField          key.Binding
	RemoveFromCalendar key.Binding
	DeleteFromForm     key.Binding
}

func (km *KeyMap) slots() map[string]*key.Binding {
	return map[string]*key.Binding{
		"ShowHelp":           &km.ShowHelp,
		"QuitApp":            &km.QuitApp,
		"SwitchPane":         &km.SwitchPane,
		"Refresh":            &km.Refresh,
		"Up":                 &km.Up,
		"Down":               &km.Down,
		"Left":               &km.Left,
		"Right":              &km.Right,
		"MoveUp":             &km.MoveUp,
		"MoveDown":           &km.MoveDown,
		"MoveLeft":           &km.MoveLeft,
		"MoveRight":          &km.MoveRight,
		"AddTask":            &km.AddTask,
		"QuickAdd":           &km.QuickAdd,
		"EditTask":           &km.EditTask,
		"DeleteTask":         &km.DeleteTask,
		"ScheduleTask":       &km.ScheduleTask,
		"Unschedule":         &km.Unschedule,
		"NewEvent":           &km.NewEvent,
		"TagFilter":          &km.TagFilter,
		"ToggleTag":          &km.ToggleTag,
		"ClearTags":          &km.ClearTags,
		"PrevWeek":           &km.PrevWeek,
		"NextWeek":           &km.NextWeek,
		"JumpToToday":        &km.JumpToToday,
		"Shorter":            &km.Shorter,
		"Longer":             &km.Longer,
		"NarrowColumn":       &km.NarrowColumn,
		"WidenColumn":        &km.WidenColumn,
		"Save":               &km.Save,
		"Cancel":             &km.Cancel,
		"NextField":          &km.NextField,
		"PrevField":          &km.PrevField,
		"RemoveFromCalendar": &km.RemoveFromCalendar,
		"DeleteFromForm":     &km.DeleteFromForm,
	}
}

// BuildKeyMap binds every action to its configured keys, falling back to the
// defaults. Unknown actions in configOverrides are ignored.
func BuildKeyMap(configOverrides map[string]string) KeyMap {
	km := KeyMap{}
	slots := km.slots()
	for action, def := range KeyDefinitions {
		keyStr := def.DefaultKey
		if override, exists := lookup(configOverrides, action); exists && override != "" {
			keyStr = override
		}
		if slot, ok := slots[action]; ok {
			*slot = parseKeyBinding(keyStr, def.DefaultKey, def.Help)
		}
	}
	return km
}

// lookup matches action names case-insensitively; viper lowercases keys
func lookup(overrides map[string]string, action string) (string, bool) {
	if v, ok := overrides[action]; ok {
		return v, true
	}
	for k, v := range overrides {
		if strings.EqualFold(k, action) {
			return v, true
		}
	}
	return "", false
}

func parseKeyBinding(keyStr, defaultKey, helpText string) key.Binding {
	if keyStr == "" {
		keyStr = defaultKey
	}

	// Handle multiple keys separated by commas
	var keys []string
	for _, k := range strings.Split(keyStr, ",") {
		k = strings.TrimSpace(k)
		keys = append(keys, k)
		// The space bar reports itself as a literal blank
		if k == "space" {
			keys = append(keys, " ")
		}
	}

	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(keys[0], helpText),
	)
}

// GetDefaultKeyMappings returns the default key mappings for configuration
func GetDefaultKeyMappings() map[string]string {
	keyMappings := make(map[string]string)
	for action, def := range KeyDefinitions {
		keyMappings[action] = def.DefaultKey
	}
	return keyMappings
}

// Actions lists every bindable action, sorted
func Actions() []string {
	out := make([]string, 0, len(KeyDefinitions))
	for action := range KeyDefinitions {
		out = append(out, action)
	}
	sort.Strings(out)
	return out
}
