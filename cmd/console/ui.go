package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/roomforge/map-engine/pkg/mapstore"
	"github.com/roomforge/map-engine/pkg/worldmap"
)

const PlaceHolderText = "Name a location to map it, or /help for commands..."

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	mapState     *mapstore.Collection
	gridViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int

	// Output lines shown beneath the grid, newest last.
	output []string

	generating   bool
	progressTick int

	showQuitModal bool
}

type mapStateMsg struct {
	mapState *mapstore.Collection
	err      error
}

type generatedMsg struct {
	generated *worldmap.Map
	retryable bool
	err       error
}

type contextMsg struct {
	response *ContextResponse
	err      error
}

type exportedMsg struct {
	mapName string
	err     error
}

type progressTickMsg struct{}

var (
	gridPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	roomStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	corridorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	characterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	contextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, c *mapstore.Collection) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(2)
	ta.ShowLineNumbers = false

	gridVp := viewport.New(50, 20)
	gridVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:       cfg,
		client:       client,
		mapState:     c,
		textarea:     ta,
		gridViewport: gridVp,
		metaViewport: metaVp,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.gridViewport, vpCmd = m.gridViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		gridWidth := int(float64(m.width)*0.7) - 4
		metaWidth := m.width - gridWidth - 6

		m.gridViewport.Width = gridWidth - 2
		m.gridViewport.Height = m.height - 6
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(gridWidth - 4)

		m.ready = true
		m.writeGridContent()
		m.metaViewport.SetContent(writeMetadata(m.mapState))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.generating {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			// Bare input maps a new location. Optional description and
			// instructions follow after pipes:
			//   Sleepy Mermaid | a dockside tavern | include a cellar
			req := parseGenerateInput(input)
			m.generating = true
			m.progressTick = 0
			m.appendOutput(loadingStyle.Render("Generating map for " + req.LocationName + "..."))
			return m, tea.Batch(m.generate(req), progressTick())
		}

	case mapStateMsg:
		if msg.err != nil {
			m.appendOutput(errorStyle.Render("Error: " + msg.err.Error()))
		} else if msg.mapState != nil {
			m.mapState = msg.mapState
			m.writeGridContent()
			m.metaViewport.SetContent(writeMetadata(m.mapState))
		}

	case generatedMsg:
		m.generating = false
		if msg.err != nil {
			text := "Error: " + msg.err.Error()
			if msg.retryable {
				text += " (press Enter to retry with the same prompt)"
			}
			m.appendOutput(errorStyle.Render(text))
			m.writeGridContent()
			return m, nil
		}
		m.appendOutput(fmt.Sprintf("Mapped %s: %d rooms on a %dx%d grid.",
			msg.generated.Name,
			len(msg.generated.Rooms),
			msg.generated.Layout.GridSize.Rows,
			msg.generated.Layout.GridSize.Cols))
		return m, m.refreshMapState()

	case contextMsg:
		if msg.err != nil {
			m.appendOutput(errorStyle.Render("Error: " + msg.err.Error()))
		} else if msg.response.Context == "" {
			m.appendOutput(fmt.Sprintf("%s has no known location.", msg.response.Character))
		} else {
			m.appendOutput(contextStyle.Render(msg.response.Context))
		}
		m.writeGridContent()

	case exportedMsg:
		if msg.err != nil {
			m.appendOutput(errorStyle.Render("Error: " + msg.err.Error()))
		} else {
			m.appendOutput(fmt.Sprintf("Copied export of %s to the clipboard.", msg.mapName))
		}
		m.writeGridContent()

	case progressTickMsg:
		if m.generating {
			m.progressTick++
			m.writeGridContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.gridViewport, vpCmd = m.gridViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// parseGenerateInput splits "name | description | instructions".
func parseGenerateInput(input string) GenerateRequest {
	parts := strings.SplitN(input, "|", 3)
	req := GenerateRequest{LocationName: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		req.Description = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		req.ExtraInstructions = strings.TrimSpace(parts[2])
	}
	return req
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "/help":
		helpText := `Commands:
• <name> [| description [| instructions]] - Generate a map
• /maps - List maps in this session
• /select <number> - Switch the active map
• /place <character> <room-id> - Put a character in a room
• /clear <character> - Remove a character from the map
• /context <character> [room|adjacent|full] - Location context
• /export - Copy the active map to the clipboard as JSON
• Ctrl+C - Quit`
		m.appendOutput(titleStyle.Render("Help") + "\n" + helpText)
		m.writeGridContent()

	case "/maps":
		if len(m.mapState.Maps) == 0 {
			m.appendOutput("No maps yet. Type a location name to generate one.")
		} else {
			var b strings.Builder
			b.WriteString(titleStyle.Render("Maps") + "\n")
			for i, mp := range m.mapState.Maps {
				marker := "  "
				if mp.ID == m.mapState.ActiveMapID {
					marker = "▶ "
				}
				b.WriteString(fmt.Sprintf("%s%d - %s (%s, %d rooms)\n", marker, i+1, mp.Name, mp.Type, len(mp.Rooms)))
			}
			m.appendOutput(strings.TrimRight(b.String(), "\n"))
		}
		m.writeGridContent()

	case "/select":
		if len(args) != 1 {
			m.appendOutput(errorStyle.Render("Usage: /select <number>"))
			m.writeGridContent()
			return m, nil
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 || n > len(m.mapState.Maps) {
			m.appendOutput(errorStyle.Render("No such map. Try /maps first."))
			m.writeGridContent()
			return m, nil
		}
		return m, m.selectMap(m.mapState.Maps[n-1].ID)

	case "/place":
		if len(args) < 2 {
			m.appendOutput(errorStyle.Render("Usage: /place <character> <room-id>"))
			m.writeGridContent()
			return m, nil
		}
		active := m.mapState.ActiveMap()
		if active == nil {
			m.appendOutput(errorStyle.Render("No active map. Generate one first."))
			m.writeGridContent()
			return m, nil
		}
		character := strings.Join(args[:len(args)-1], " ")
		roomID := args[len(args)-1]
		return m, m.placeCharacter(SetCharacterRequest{
			Name:   character,
			MapID:  active.ID,
			RoomID: roomID,
		})

	case "/clear":
		if len(args) < 1 {
			m.appendOutput(errorStyle.Render("Usage: /clear <character>"))
			m.writeGridContent()
			return m, nil
		}
		return m, m.placeCharacter(SetCharacterRequest{Name: strings.Join(args, " ")})

	case "/context":
		if len(args) < 1 {
			m.appendOutput(errorStyle.Render("Usage: /context <character> [room|adjacent|full]"))
			m.writeGridContent()
			return m, nil
		}
		detail := ""
		character := strings.Join(args, " ")
		switch last := strings.ToLower(args[len(args)-1]); last {
		case "room", "adjacent", "full":
			detail = last
			character = strings.Join(args[:len(args)-1], " ")
		}
		if character == "" {
			m.appendOutput(errorStyle.Render("Usage: /context <character> [room|adjacent|full]"))
			m.writeGridContent()
			return m, nil
		}
		return m, m.fetchContext(character, detail)

	case "/export":
		active := m.mapState.ActiveMap()
		if active == nil {
			m.appendOutput(errorStyle.Render("No active map to export."))
			m.writeGridContent()
			return m, nil
		}
		return m, m.exportActiveMap(active.ID, active.Name)

	default:
		m.appendOutput(errorStyle.Render("Unknown command. Try /help."))
		m.writeGridContent()
	}

	return m, nil
}

func (m ConsoleUI) generate(req GenerateRequest) tea.Cmd {
	return func() tea.Msg {
		generated, retryable, err := generateMap(m.client, m.config.APIBaseURL, m.mapState.ID, req)
		return generatedMsg{generated, retryable, err}
	}
}

func (m ConsoleUI) refreshMapState() tea.Cmd {
	return func() tea.Msg {
		c, err := getMapState(m.client, m.config.APIBaseURL, m.mapState.ID)
		return mapStateMsg{c, err}
	}
}

func (m ConsoleUI) selectMap(mapID string) tea.Cmd {
	return func() tea.Msg {
		c, err := selectMap(m.client, m.config.APIBaseURL, m.mapState.ID, mapID)
		return mapStateMsg{c, err}
	}
}

func (m ConsoleUI) placeCharacter(req SetCharacterRequest) tea.Cmd {
	return func() tea.Msg {
		c, err := setCharacter(m.client, m.config.APIBaseURL, m.mapState.ID, req)
		return mapStateMsg{c, err}
	}
}

func (m ConsoleUI) fetchContext(character, detail string) tea.Cmd {
	return func() tea.Msg {
		resp, err := getContext(m.client, m.config.APIBaseURL, m.mapState.ID, character, detail)
		return contextMsg{resp, err}
	}
}

func (m ConsoleUI) exportActiveMap(mapID, mapName string) tea.Cmd {
	return func() tea.Msg {
		exp, err := exportMap(m.client, m.config.APIBaseURL, m.mapState.ID, mapID)
		if err != nil {
			return exportedMsg{mapName, err}
		}
		data, err := json.MarshalIndent(exp, "", "  ")
		if err != nil {
			return exportedMsg{mapName, err}
		}
		if err := clipboard.WriteAll(string(data)); err != nil {
			return exportedMsg{mapName, fmt.Errorf("clipboard unavailable: %w", err)}
		}
		return exportedMsg{mapName, nil}
	}
}

func (m *ConsoleUI) appendOutput(line string) {
	m.output = append(m.output, line)
	if len(m.output) > 20 {
		m.output = m.output[len(m.output)-20:]
	}
}

// writeGridContent renders the active map plus recent output into the
// grid viewport.
func (m *ConsoleUI) writeGridContent() {
	gridWidth := m.gridViewport.Width - 4
	if gridWidth < 20 {
		gridWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("MAP ENGINE") + "\n\n")

	active := m.mapState.ActiveMap()
	if active == nil {
		content.WriteString("No active map.\n")
		content.WriteString("Type a location name below to generate one.\n")
	} else {
		content.WriteString(renderGrid(active, m.mapState))
		content.WriteString("\n")
	}

	if len(m.output) > 0 {
		content.WriteString(separatorStyle.Render(strings.Repeat("─", gridWidth)) + "\n")
		for _, line := range m.output {
			content.WriteString(wordwrap.String(line, gridWidth) + "\n")
		}
	}

	if m.generating {
		content.WriteString("\n" + m.renderProgressBar())
	}

	m.gridViewport.SetContent(content.String())
	m.gridViewport.GotoBottom()
}

// renderGrid draws the map grid, one character cell per grid cell.
// Rooms show as letters keyed by the legend, corridors as shaded cells.
func renderGrid(active *worldmap.Map, c *mapstore.Collection) string {
	rows := active.Layout.GridSize.Rows
	cols := active.Layout.GridSize.Cols

	roomAt := make(map[worldmap.Position]int)
	for i, r := range active.Rooms {
		if r.Position != nil {
			roomAt[*r.Position] = i
		}
	}
	corridorAt := make(map[worldmap.Position]bool)
	for _, p := range active.Layout.Corridors {
		corridorAt[p] = true
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(active.Name) + "\n\n")

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			pos := worldmap.Position{Row: row, Col: col}
			if i, ok := roomAt[pos]; ok {
				b.WriteString(roomStyle.Render(roomLetter(i)) + " ")
			} else if corridorAt[pos] {
				b.WriteString(corridorStyle.Render("░") + " ")
			} else {
				b.WriteString(corridorStyle.Render("·") + " ")
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	for i, r := range active.Rooms {
		line := roomStyle.Render(roomLetter(i)) + fmt.Sprintf(" %s (%s)", r.Name, r.Size)
		if chars := c.CharactersIn(active.ID, r.ID); len(chars) > 0 {
			line += " " + characterStyle.Render("["+strings.Join(chars, ", ")+"]")
		}
		b.WriteString(line + "\n")
	}

	return b.String()
}

func roomLetter(i int) string {
	return string(rune('A' + i%26))
}

func writeMetadata(c *mapstore.Collection) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("MAP STATE") + "\n\n")

	content.WriteString("Session:\n")
	content.WriteString(c.ID.String()[:8] + "...\n\n")

	content.WriteString(fmt.Sprintf("Maps: %d\n\n", len(c.Maps)))

	if len(c.CharacterLocations) > 0 {
		content.WriteString("Characters:\n")
		for name, loc := range c.CharacterLocations {
			roomName := loc.RoomID
			if mp := c.FindMap(loc.MapID); mp != nil {
				if r := mp.FindRoom(loc.RoomID); r != nil {
					roomName = r.Name
				}
			}
			content.WriteString(fmt.Sprintf("• %s: %s\n", name, roomName))
		}
	} else {
		content.WriteString("Characters:\nNone placed\n")
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /maps: Maps\n")

	return content.String()
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Leave this mapping session? Maps stay saved on the server.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	gridWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - gridWidth - 6

	gridPanel := gridPanelStyle.Width(gridWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.gridViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", gridWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, gridPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.gridViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
