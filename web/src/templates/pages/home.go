package pages

import (
	"strconv"

	cmp "maragu.dev/gomponents"
	g "maragu.dev/gomponents/html"

	"github.com/nfrund/relay/internal/domain"
	"github.com/nfrund/relay/web/src/templates/layouts"
)

// clientScript posts the form with fetch and appends every event from
// /events to the message list.
const clientScript = `
const list = document.getElementById("messages");
const source = new EventSource("/events");
source.onmessage = (ev) => {
  const m = JSON.parse(ev.data);
  const li = document.createElement("li");
  li.textContent = "[" + m.room + "] " + m.username + ": " + m.message;
  list.appendChild(li);
};
document.getElementById("compose").addEventListener("submit", (ev) => {
  ev.preventDefault();
  const form = ev.target;
  fetch("/message", { method: "POST", body: new URLSearchParams(new FormData(form)) });
  form.elements.message.value = "";
});
`

// Home is a minimal client for the relay: a compose form and a live list of
// messages received over the event stream.
func Home() cmp.Node {
	return layouts.Base("Chat",
		g.Main(
			g.H1(cmp.Text("Relay")),
			g.Ul(g.ID("messages")),
			cmp.El("form",
				g.ID("compose"),
				textInput("room", "Room", domain.MaxRoomLength, "lobby"),
				textInput("username", "Username", domain.MaxUsernameLength, ""),
				textInput("message", "Message", 0, ""),
				cmp.El("input", g.Type("hidden"), g.Name("avatar_style"), g.Value("bottts")),
				g.Button(g.Type("submit"), cmp.Text("Send")),
			),
		),
		g.Script(cmp.Raw(clientScript)),
	)
}

func textInput(name, placeholder string, maxLen int, value string) cmp.Node {
	return cmp.El("input",
		g.Type("text"),
		g.Name(name),
		g.Placeholder(placeholder),
		cmp.If(maxLen > 0, cmp.Attr("maxlength", strconv.Itoa(maxLen))),
		cmp.If(value != "", g.Value(value)),
	)
}
