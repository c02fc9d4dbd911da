package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"burrowdb/config"
	"burrowdb/core/buffer"
	"burrowdb/core/index/trie"
	"burrowdb/pkg/logger"
	"burrowdb/pkg/telemetry"

	diskmanager "burrowdb/core/storage_engine/disk_manager"
	diskscheduler "burrowdb/core/storage_engine/disk_scheduler"
	pagemanager "burrowdb/core/storage_engine/page_manager"
	internaltelemetry "burrowdb/internal/telemetry"

	"github.com/chzyer/readline"
	"go.uber.org/zap"
)

const helpText = `Commands:
  new                     allocate a new page (pinned)
  fetch <id>              fetch a page from the pool or disk
  read <id>               print a page's contents (read guard)
  write <id> <text>       write text into a page (write guard)
  unpin <id> [dirty]      unpin a page, optionally marking it dirty
  flush <id>              write a page back to disk
  flushall                write all resident pages back to disk
  delete <id>             drop a page from the pool
  tput <key> <value>      put a key into the trie store
  tget <key>              look a key up in the trie store
  tdel <key>              remove a key from the trie store
  help                    show this help
  exit                    quit
`

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		return
	}
	defer log.Sync()

	tel, telShutdown, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		log.Fatal("failed to initialize telemetry", zap.Error(err))
	}
	defer telShutdown(context.Background())

	bpMetrics, err := internaltelemetry.NewBufferPoolMetrics(tel.Meter)
	if err != nil {
		log.Fatal("failed to create buffer pool metrics", zap.Error(err))
	}

	dm, err := diskmanager.NewDiskManager(cfg.Storage.DataFile, cfg.Storage.PageSize, logger.Component(log, "disk_manager"))
	if err != nil {
		log.Fatal("failed to open data file", zap.Error(err))
	}
	defer dm.Close()

	scheduler := diskscheduler.NewDiskScheduler(dm, cfg.Storage.WriteRateBytesPerSec, logger.Component(log, "disk_scheduler"))
	defer scheduler.Close()

	bpm := buffer.NewBufferPoolManager(cfg.Storage.PoolSize, cfg.Storage.PageSize, cfg.Storage.ReplacerK, scheduler, logger.Component(log, "buffer_pool"), bpMetrics)
	store := trie.NewStore()

	rl, err := readline.New("burrowdb> ")
	if err != nil {
		log.Fatal("failed to initialize readline", zap.Error(err))
	}
	defer rl.Close()

	fmt.Print(helpText)
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			break
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if done := runCommand(bpm, store, fields); done {
			break
		}
	}
	bpm.FlushAllPages()
}

func runCommand(bpm *buffer.BufferPoolManager, store *trie.Store, fields []string) bool {
	switch fields[0] {
	case "new":
		_, pageID, err := bpm.NewPage()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		fmt.Printf("Allocated page %d (pinned)\n", pageID)
	case "fetch":
		pageID, ok := parsePageID(fields, 1)
		if !ok {
			return false
		}
		p, err := bpm.FetchPage(pageID, buffer.AccessLookup)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		fmt.Printf("Fetched page %d, pin count %d\n", p.GetPageID(), p.GetPinCount())
	case "read":
		pageID, ok := parsePageID(fields, 1)
		if !ok {
			return false
		}
		guard, err := bpm.FetchPageRead(pageID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		data := strings.TrimRight(string(guard.GetData()), "\x00")
		guard.Drop()
		fmt.Printf("Page %d: %q\n", pageID, data)
	case "write":
		pageID, ok := parsePageID(fields, 1)
		if !ok {
			return false
		}
		if len(fields) < 3 {
			fmt.Println("Usage: write <id> <text>")
			return false
		}
		guard, err := bpm.FetchPageWrite(pageID)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		text := strings.Join(fields[2:], " ")
		data := guard.GetDataMut()
		for i := range data {
			data[i] = 0
		}
		copy(data, text)
		guard.Drop()
		fmt.Printf("Wrote %d bytes to page %d\n", len(text), pageID)
	case "unpin":
		pageID, ok := parsePageID(fields, 1)
		if !ok {
			return false
		}
		dirty := len(fields) > 2 && fields[2] == "dirty"
		if bpm.UnpinPage(pageID, dirty, buffer.AccessUnknown) {
			fmt.Printf("Unpinned page %d\n", pageID)
		} else {
			fmt.Printf("Page %d not resident or not pinned\n", pageID)
		}
	case "flush":
		pageID, ok := parsePageID(fields, 1)
		if !ok {
			return false
		}
		if bpm.FlushPage(pageID) {
			fmt.Printf("Flushed page %d\n", pageID)
		} else {
			fmt.Printf("Page %d not resident\n", pageID)
		}
	case "flushall":
		bpm.FlushAllPages()
		fmt.Println("Flushed all resident pages")
	case "delete":
		pageID, ok := parsePageID(fields, 1)
		if !ok {
			return false
		}
		if bpm.DeletePage(pageID) {
			fmt.Printf("Deleted page %d\n", pageID)
		} else {
			fmt.Printf("Page %d is pinned\n", pageID)
		}
	case "tput":
		if len(fields) < 3 {
			fmt.Println("Usage: tput <key> <value>")
			return false
		}
		trie.StorePut(store, fields[1], strings.Join(fields[2:], " "))
		fmt.Printf("OK\n")
	case "tget":
		if len(fields) < 2 {
			fmt.Println("Usage: tget <key>")
			return false
		}
		if v, ok := trie.StoreGet[string](store, fields[1]); ok {
			fmt.Printf("%s\n", v)
		} else {
			fmt.Println("(not found)")
		}
	case "tdel":
		if len(fields) < 2 {
			fmt.Println("Usage: tdel <key>")
			return false
		}
		store.Remove(fields[1])
		fmt.Printf("OK\n")
	case "help":
		fmt.Print(helpText)
	case "exit", "quit":
		return true
	default:
		fmt.Printf("Unknown command %q, try 'help'\n", fields[0])
	}
	return false
}

func parsePageID(fields []string, idx int) (pagemanager.PageID, bool) {
	if len(fields) <= idx {
		fmt.Println("Missing page id")
		return pagemanager.InvalidPageID, false
	}
	id, err := strconv.ParseInt(fields[idx], 10, 64)
	if err != nil || id < 0 {
		fmt.Printf("Invalid page id %q\n", fields[idx])
		return pagemanager.InvalidPageID, false
	}
	return pagemanager.PageID(id), true
}
