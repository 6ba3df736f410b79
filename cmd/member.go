package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/kasboard/internal/cli"
	"github.com/theirongolddev/kasboard/internal/dashboard"
	"github.com/theirongolddev/kasboard/internal/model"

	"github.com/spf13/cobra"
)

var (
	flagMemberName     string
	flagMemberPosition string
	flagMemberContact  string
)

var memberCmd = &cobra.Command{
	Use:     "member",
	Aliases: []string{"anggota"},
	Short:   "List, add or delete members",
	RunE:    runMemberList,
}

var memberListCmd = &cobra.Command{
	Use:   "list",
	Short: "List members",
	RunE:  runMemberList,
}

var memberAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Add a member (Bendahara only)",
	Example: `  kasboard member add --name Sari --position Sekretaris --contact 0813xxxx`,
	RunE:    runMemberAdd,
}

var memberDeleteCmd = &cobra.Command{
	Use:   "delete <no>",
	Short: "Delete a member by the number shown in `member list` (Bendahara only)",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemberDelete,
}

func init() {
	memberAddCmd.Flags().StringVar(&flagMemberName, "name", "", "Member name")
	memberAddCmd.Flags().StringVar(&flagMemberPosition, "position", string(model.DefaultPosition), "Position: "+positionNames())
	memberAddCmd.Flags().StringVar(&flagMemberContact, "contact", "", "Phone number or email")
	_ = memberAddCmd.MarkFlagRequired("name")
	_ = memberAddCmd.MarkFlagRequired("contact")

	memberCmd.AddCommand(memberListCmd, memberAddCmd, memberDeleteCmd)
	rootCmd.AddCommand(memberCmd)
}

func positionNames() string {
	names := make([]string, len(model.Positions))
	for i, p := range model.Positions {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// parsePosition matches s against the known positions, ignoring case.
// Unknown values pass through so the controller reports them.
func parsePosition(s string) model.Position {
	for _, p := range model.Positions {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p
		}
	}
	return model.Position(s)
}

func runMemberList(_ *cobra.Command, _ []string) error {
	ctrl, done := openController()
	defer done()

	members := ctrl.Members()
	if len(members) == 0 {
		fmt.Println("\n  No members yet. Add one with `kasboard member add`.")
		return nil
	}

	rows := make([][]string, len(members))
	for i, m := range members {
		rows[i] = []string{strconv.Itoa(i + 1), string(m.Position), m.Name, m.Contact}
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:     fmt.Sprintf("Members (%d)", len(members)),
		Headers:   []string{"No", "Position", "Name", "Contact"},
		Rows:      rows,
		LeftAlign: []int{1, 2, 3},
	}))
	return nil
}

func runMemberAdd(_ *cobra.Command, _ []string) error {
	sess, err := login()
	if err != nil {
		return err
	}
	ctrl, done := openController()
	defer done()

	m, err := ctrl.AddMember(sess, dashboard.MemberInput{
		Name:     flagMemberName,
		Position: parsePosition(flagMemberPosition),
		Contact:  flagMemberContact,
	})
	if err != nil {
		return err
	}
	fmt.Printf("  %s\n", cli.RenderSuccess("Added "+m.Label()))
	return nil
}

func runMemberDelete(_ *cobra.Command, args []string) error {
	no, err := strconv.Atoi(args[0])
	if err != nil || no < 1 {
		return fmt.Errorf("member number %q: want 1 or more", args[0])
	}

	sess, err := login()
	if err != nil {
		return err
	}
	ctrl, done := openController()
	defer done()

	m, err := ctrl.DeleteMember(sess, no-1)
	if err != nil {
		return err
	}
	fmt.Printf("  %s\n", cli.RenderSuccess("Deleted "+m.Label()))
	return nil
}
