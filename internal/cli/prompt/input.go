package prompt

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"

	"github.com/marmos91/smbwire/internal/bytesize"
)

// Input asks for free text, offering defaultValue.
func Input(label, defaultValue string, validate func(string) error) (string, error) {
	p := &promptui.Prompt{
		Label:    label,
		Default:  defaultValue,
		Validate: validate,
	}
	result, err := runPrompt(p).Run()
	return result, wrapError(err)
}

// ValidatePort accepts 1-65535.
func ValidatePort(input string) error {
	port, err := strconv.Atoi(input)
	if err != nil {
		return fmt.Errorf("must be a valid integer")
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("must be a valid port (1-65535)")
	}
	return nil
}

// ValidateByteSize accepts anything bytesize.ParseByteSize does, except 0.
func ValidateByteSize(input string) error {
	size, err := bytesize.ParseByteSize(input)
	if err != nil {
		return err
	}
	if size == 0 {
		return fmt.Errorf("must be greater than zero")
	}
	return nil
}

// InputPort asks for a TCP port.
func InputPort(label string, defaultValue int) (int, error) {
	result, err := Input(label, strconv.Itoa(defaultValue), ValidatePort)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(result)
}

// InputByteSize asks for a size such as "16Mi".
func InputByteSize(label string, defaultValue bytesize.ByteSize) (bytesize.ByteSize, error) {
	def, _ := defaultValue.MarshalText()
	result, err := Input(label, string(def), ValidateByteSize)
	if err != nil {
		return 0, err
	}
	return bytesize.ParseByteSize(result)
}
