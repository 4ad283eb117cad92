package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orgchart/pkg/server"
	"github.com/matzehuels/orgchart/pkg/settings"
)

// settingsCommand creates the display settings command.
func (c *CLI) settingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the stored display settings",
	}

	cmd.AddCommand(c.settingsShowCommand())
	cmd.AddCommand(c.settingsSetCommand())
	cmd.AddCommand(c.settingsResetCommand())

	return cmd
}

func (c *CLI) settingsShowCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			st, err := c.storedSettings(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			pairs, err := settingsPairs(st)
			if err != nil {
				return err
			}
			for _, kv := range pairs {
				printKeyValue(kv[0], kv[1])
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func (c *CLI) settingsSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set key=value [key=value...]",
		Short: "Change settings",
		Long: `Change settings. Keys use the JSON names shown by 'settings show'.

Values true, false and numbers are stored as such; anything else is a
string. A single argument starting with '{' is taken as a JSON patch.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeSettingKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := settingsPatch(args)
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := openSettings(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if _, err := settings.Update(cmd.Context(), store, patch); err != nil {
				return err
			}
			printSuccess("Settings updated")
			return nil
		},
	}
}

func (c *CLI) settingsResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := openSettings(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			if _, err := settings.Reset(cmd.Context(), store); err != nil {
				return err
			}
			printSuccess("Settings reset to defaults")
			return nil
		},
	}
}

// settingsPatch turns key=value arguments into a JSON merge patch.
func settingsPatch(args []string) ([]byte, error) {
	if len(args) == 1 && strings.HasPrefix(strings.TrimSpace(args[0]), "{") {
		if !json.Valid([]byte(args[0])) {
			return nil, fmt.Errorf("invalid JSON patch")
		}
		return []byte(args[0]), nil
	}
	patch := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid setting %q (want key=value)", arg)
		}
		patch[key] = settingValue(value)
	}
	return json.Marshal(patch)
}

func settingValue(v string) any {
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

// settingsPairs flattens st into sorted key/value strings. Maps are
// printed as compact JSON.
func settingsPairs(st settings.Settings) ([][2]string, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([][2]string, 0, len(keys))
	for _, k := range keys {
		v := string(m[k])
		var s string
		if json.Unmarshal(m[k], &s) == nil {
			v = s
		}
		out = append(out, [2]string{k, v})
	}
	return out, nil
}

// hashPasswordCommand prints a bcrypt hash for the admin password.
func (c *CLI) hashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for the admin password",
		Long: `Print a bcrypt hash for the admin password.

Put the hash in the [server] admin_password_hash config key or the
ORGCHART_ADMIN_HASH environment variable. Without an argument the password
is read from the first line of standard input.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				p, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = p
			}
			if password == "" {
				return fmt.Errorf("empty password")
			}
			hash, err := server.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
