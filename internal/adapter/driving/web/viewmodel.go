package web

import (
	"fmt"

	vm "github.com/ericfisherdev/tinkerstudio/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/tinkerstudio/internal/application"
)

const (
	pageTitle       = "Tinker Studio"
	fetchIdleLabel  = "Get Supported Models"
	fetchBusyLabel  = "Loading..."
	pageActionsBase = "/app/pages/%s/%s"
)

// toBrowserViewModel converts a browser snapshot into the panel view model.
func toBrowserViewModel(pageID, csrfToken, noticeHTML string, snap application.BrowserSnapshot) vm.BrowserViewModel {
	rows := make([]vm.ModelRowViewModel, 0, len(snap.Models))
	for _, m := range snap.Models {
		rows = append(rows, vm.ModelRowViewModel{Name: m.Name})
	}

	label := fetchIdleLabel
	if snap.Loading() {
		label = fetchBusyLabel
	}

	sortLabel := "ascending"
	if !snap.Sort.Ascending() {
		sortLabel = "descending"
	}

	return vm.BrowserViewModel{
		Title:             pageTitle,
		NoticeHTML:        noticeHTML,
		CSRFToken:         csrfToken,
		DraftPath:         pagePath(pageID, "draft"),
		VisibilityPath:    pagePath(pageID, "visibility"),
		CommitPath:        pagePath(pageID, "commit"),
		FetchPath:         pagePath(pageID, "fetch"),
		SortPath:          pagePath(pageID, "sort"),
		Draft:             snap.Draft,
		CredentialVisible: snap.CredentialVisible,
		CanCommit:         snap.CanCommit,
		CanFetch:          snap.CanFetch,
		Loading:           snap.Loading(),
		FetchLabel:        label,
		Error:             snap.Error,
		Models:            rows,
		SortAscending:     snap.Sort.Ascending(),
		SortLabel:         sortLabel,
	}
}

func pagePath(pageID, action string) string {
	return fmt.Sprintf(pageActionsBase, pageID, action)
}
