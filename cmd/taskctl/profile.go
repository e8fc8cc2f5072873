package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/model"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or change your profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your profile",
	Args:  cobra.NoArgs,
	RunE:  runProfileShow,
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Replace your profile's name and avatar URL",
	Long: `Replace your profile's name and avatar URL.

Fields whose flags are omitted keep their current value. Pass an empty
string to clear a field.`,
	Args: cobra.NoArgs,
	RunE: runProfileSet,
}

var (
	profileSetName      string
	profileSetAvatarURL string
)

var avatarCmd = &cobra.Command{
	Use:   "avatar",
	Short: "Manage your avatar image",
}

var avatarUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload an image and set it as your avatar",
	Long: `Upload an image and set it as your avatar.

The content type is sniffed from the file unless --type is given. Images
must be at most 5 MiB.`,
	Args: cobra.ExactArgs(1),
	RunE: runAvatarUpload,
}

var avatarUploadType string

func init() {
	rootCmd.AddCommand(profileCmd, avatarCmd)
	profileCmd.AddCommand(profileShowCmd, profileSetCmd)
	avatarCmd.AddCommand(avatarUploadCmd)

	profileSetCmd.Flags().StringVar(&profileSetName, "name", "", "Display name")
	profileSetCmd.Flags().StringVar(&profileSetAvatarURL, "avatar-url", "", "Avatar image URL")

	avatarUploadCmd.Flags().StringVar(&avatarUploadType, "type", "", "Content type (default: sniffed)")
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	c, err := requireSession()
	if err != nil {
		return err
	}
	p, err := c.GetProfile(cmd.Context())
	if err != nil {
		return err
	}
	if jsonOutput {
		return encodeJSON(cmd.OutOrStdout(), p)
	}
	fmt.Fprint(cmd.OutOrStdout(), formatProfile(p))
	return nil
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	c, err := requireSession()
	if err != nil {
		return err
	}

	current, err := c.GetProfile(cmd.Context())
	if err != nil {
		return err
	}
	fields := profileFieldsOf(current)
	if v := changedString(cmd.Flags(), "name", profileSetName); v != nil {
		fields.Name = v
	}
	if v := changedString(cmd.Flags(), "avatar-url", profileSetAvatarURL); v != nil {
		fields.AvatarURL = v
	}

	if err := c.UpsertProfile(cmd.Context(), fields); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Profile saved."))
	return nil
}

func runAvatarUpload(cmd *cobra.Command, args []string) error {
	c, err := requireSession()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read avatar: %w", err)
	}
	contentType := avatarUploadType
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	url, err := c.UploadAvatar(cmd.Context(), data, contentType)
	if err != nil {
		return err
	}

	// Upload and profile update are separate calls.
	current, err := c.GetProfile(cmd.Context())
	if err != nil {
		return fmt.Errorf("uploaded to %s but could not read profile: %w", url, err)
	}
	fields := profileFieldsOf(current)
	fields.AvatarURL = &url
	if err := c.UpsertProfile(cmd.Context(), fields); err != nil {
		return fmt.Errorf("uploaded to %s but could not update profile: %w", url, err)
	}

	if jsonOutput {
		return encodeJSON(cmd.OutOrStdout(), map[string]string{"url": url})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successStyle.Render("Avatar set:"), url)
	return nil
}

func profileFieldsOf(p *model.Profile) model.ProfileFields {
	if p == nil {
		return model.ProfileFields{}
	}
	return model.ProfileFields{Name: p.Name, AvatarURL: p.AvatarURL}
}
