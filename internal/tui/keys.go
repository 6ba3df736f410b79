package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit    key.Binding
	Help    key.Binding
	Refresh key.Binding
	PrevTab key.Binding
	NextTab key.Binding
	Up      key.Binding
	Down    key.Binding
	Top     key.Binding
	Bottom  key.Binding
	Add     key.Binding
	Delete  key.Binding
	Export  key.Binding
	Confirm key.Binding
	Cancel  key.Binding
	Theme   key.Binding
	Logout  key.Binding
}

var keys = keyMap{
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "Keluar")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "Toggle help")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "Muat ulang data")),
	PrevTab: key.NewBinding(key.WithKeys("left", "shift+tab"), key.WithHelp("←", "Tab sebelumnya")),
	NextTab: key.NewBinding(key.WithKeys("right", "tab"), key.WithHelp("→", "Tab berikutnya")),
	Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k ↑", "Naik")),
	Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j ↓", "Turun")),
	Top:     key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "Paling atas")),
	Bottom:  key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "Paling bawah")),
	Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "Tambah (Bendahara)")),
	Delete:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "Hapus (Bendahara)")),
	Export:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "Ekspor CSV (Bendahara)")),
	Confirm: key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "Konfirmasi")),
	Cancel:  key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("esc", "Batal")),
	Theme:   key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "Ganti pilihan")),
	Logout:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "Logout")),
}

// helpSections groups bindings for the help overlay.
func (k keyMap) helpSections() []struct {
	title    string
	bindings []key.Binding
} {
	return []struct {
		title    string
		bindings []key.Binding
	}{
		{"Navigasi", []key.Binding{k.PrevTab, k.NextTab, k.Up, k.Down, k.Top, k.Bottom}},
		{"Aksi", []key.Binding{k.Add, k.Delete, k.Export, k.Refresh, k.Logout, k.Help, k.Quit}},
	}
}
