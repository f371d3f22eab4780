package main

import (
	"flag"
	"os"
	"reflect"
	"strings"

	"github.com/LeoCommon/cellmodem/internal/config"
	"github.com/LeoCommon/cellmodem/pkg/log"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

// Example values for options that are empty by default and would be dropped by "omitempty"
var examples = map[string]string{
	"modem.device":         "/dev/ttyUSB2",
	"modem.metrics_listen": ":9101",
}

func tomlName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	if name == "" {
		return f.Name
	}
	return name
}

// setExamples walks the config tree and fills empty strings with their example value
func setExamples(v reflect.Value, prefix string) {
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := v.Type().Field(i)
		if !fieldType.IsExported() {
			continue
		}

		key := tomlName(fieldType)
		if prefix != "" {
			key = prefix + "." + key
		}

		switch field.Kind() {
		case reflect.Ptr:
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			if field.Elem().Kind() == reflect.Struct {
				setExamples(field.Elem(), key)
			}
		case reflect.Struct:
			setExamples(field, key)
		case reflect.String:
			if example, ok := examples[key]; ok && field.String() == "" {
				field.SetString(example)
			}
		}
	}
}

func main() {
	output := flag.String("o", "", "write the sample config to this file instead of stdout")
	flag.Parse()

	log.InitQuiet()

	// Start from the built-in defaults so the sample documents them
	cf := config.Defaults()
	setExamples(reflect.ValueOf(&cf).Elem(), "")

	data, err := toml.Marshal(&cf)
	if err != nil {
		log.Fatal("could not marshal the sample config", zap.Error(err))
	}

	if *output == "" {
		_, _ = os.Stdout.Write(data)
		return
	}

	if err := os.WriteFile(*output, data, 0644); err != nil {
		log.Fatal("failed to write config file", zap.String("path", *output), zap.Error(err))
	}
}
