package clibase

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	envFileDefault  = ".env"
	envFileFlagName = "env-file"
)

var (
	// ErrorFlagCannotRetrieve is the error logged when attempting to retrieve the value of a flag fails
	ErrorFlagCannotRetrieve = fmt.Errorf("cannot retrieve flag value")
	// ErrorEnvFileLoad is the error logged when a dotenv file exists but cannot be parsed
	ErrorEnvFileLoad = fmt.Errorf("unable to load env file")
)

// AddRootFlags takes a pointer to an existing pflag.FlagSet and adds the default root/top level flags to it
func AddRootFlags(flags *pflag.FlagSet) {
	rootFlags := &pflag.FlagSet{}

	addLogFlags(rootFlags)
	rootFlags.String(envFileFlagName, envFileDefault, "Dotenv file loaded into the environment before running (ignored when absent)")
	flags.AddFlagSet(rootFlags)
}

// New returns a new Cobra root command with the default flags and the version subcommand
func New(cmdName, cmdDescription string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               cmdName,
		Short:             cmdDescription,
		SilenceUsage:      true,
		PersistentPreRunE: rootPersistentPreRunE,
	}

	AddRootFlags(rootCmd.PersistentFlags())
	addVersionCmd(rootCmd)
	return rootCmd
}

func rootPersistentPreRunE(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	envFile, err := getFlagString(flags, envFileFlagName)
	if err != nil {
		return err
	}
	if err := loadEnvFile(envFile); err != nil {
		return err
	}

	logFormat, err := getFlagString(flags, logFlagFormatName)
	if err != nil {
		return err
	}
	logLevel, err := getFlagString(flags, logFlagLevelName)
	if err != nil {
		return err
	}

	checkCobraFlags(flags)

	return configureLogging(logFormat, logLevel)
}

func getFlagString(flags *pflag.FlagSet, name string) (string, error) {
	value, err := flags.GetString(name)
	if err != nil {
		log.WithFields(log.Fields{
			"flag.name": name,
			"error":     err,
		}).Error(ErrorFlagCannotRetrieve.Error())
		return "", err
	}
	return value, nil
}

// loadEnvFile sets variables from a dotenv file without overriding ones already in the environment
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.WithField("file.path", path).Debug("no env file found, using environment variables directly")
			return nil
		}
		log.WithFields(log.Fields{
			"error":     err,
			"file.path": path,
		}).Error(ErrorEnvFileLoad.Error())
		return fmt.Errorf("%w: %w", ErrorEnvFileLoad, err)
	}
	log.WithField("file.path", path).Debug("env file loaded")
	return nil
}

func checkCobraFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(flag *pflag.Flag) {
		l := log.WithField("flag.name", flag.Name)
		l.Tracef("checking flag for style")

		if strings.Contains(flag.Name, "_") {
			// We don't use --foo_bar, we use --foo-bar.
			l.WithField("violation", "flag names must use hyphen not underscore").Warnf("invalid flag name")
		}
	})
}
