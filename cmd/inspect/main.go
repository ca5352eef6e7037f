// Command inspect dumps the content of a service database as a table,
// without stopping the server: the store is opened read-only. Handy to
// check what the key scheme actually holds.
package main

import (
	"bubble/domain"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,default=/tmp/bubble/badger"`
}

func main() {
	// A missing .env file is fine, the flags and environment take over
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatal("Config error: ", err)
	}

	dbPath := flag.String("db", config.BadgerFilepath, "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg:, room: or user:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Room", "User", "Timestamp", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(v []byte) error {
				table.Append(rowFor(key, v))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

// rowFor renders one record depending on its key family. Unparseable
// values never stop the scan, they show up as raw bytes.
func rowFor(key string, value []byte) []string {
	switch {
	case len(key) >= 4 && key[:4] == "msg:":
		var message domain.Message
		if err := json.Unmarshal(value, &message); err != nil {
			return []string{key, "", "", "", fmt.Sprintf("unreadable: %v", err)}
		}
		return []string{key, message.Room, message.User,
			message.CreatedAt.Format("2006-01-02 15:04:05"), message.Text}
	case len(key) >= 5 && key[:5] == "user:":
		var profile domain.UserProfile
		if err := json.Unmarshal(value, &profile); err != nil {
			return []string{key, "", "", "", fmt.Sprintf("unreadable: %v", err)}
		}
		return []string{key, "", profile.Email, "", profile.DisplayName}
	default:
		var room domain.Room
		if err := json.Unmarshal(value, &room); err != nil {
			return []string{key, "", "", "", string(value)}
		}
		return []string{key, room.Name, "", "", ""}
	}
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	return badger.Open(opts)
}
